package push

import (
	"log"
	"os"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// VAPIDKeys identify this server to the push services. The public key must
// stay stable for the lifetime of all issued subscriptions; rotating it
// invalidates every one of them.
type VAPIDKeys struct {
	Public     string
	Private    string
	Subscriber string // contact address sent to push services; webpush-go adds mailto:
}

// LoadVAPIDKeys reads the key pair from the environment, generating and
// logging a fresh pair when absent so a dev instance works out of the box.
func LoadVAPIDKeys() (VAPIDKeys, error) {
	keys := VAPIDKeys{
		Public:     os.Getenv("VAPID_PUBLIC_KEY"),
		Private:    os.Getenv("VAPID_PRIVATE_KEY"),
		Subscriber: os.Getenv("PUSH_SUBSCRIBER"),
	}
	if keys.Subscriber == "" {
		keys.Subscriber = "admin@carelink.example"
	}

	if keys.Private == "" || keys.Public == "" {
		log.Println("VAPID keys not found in environment. Generating new keys...")
		privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			return VAPIDKeys{}, err
		}
		keys.Private = privateKey
		keys.Public = publicKey
		log.Printf("Generated VAPID Keys:\nVAPID_PRIVATE_KEY=%s\nVAPID_PUBLIC_KEY=%s\n(Add these to your .env file to persist them)", privateKey, publicKey)
	}

	return keys, nil
}
