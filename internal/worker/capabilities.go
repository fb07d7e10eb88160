package worker

// Notification permission states as reported by the platform.
const (
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
	PermissionDefault = "default"
)

// PlatformCapabilities is computed once per runtime instance instead of
// probing platform globals inside every handler. Mobile and desktop browsers
// differ on vibration and notification actions; the runtime degrades rather
// than erroring when either is absent.
type PlatformCapabilities struct {
	NotificationPermission string
	SupportsVibration      bool
	SupportsActions        bool
}
