package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"carelink-go/internal/models"
)

const totpIssuer = "CareLink"

func verifyTOTP(secret, code string) bool {
	return models.VerifyTOTPCode(secret, code)
}

// Generate2FAHandler generates a new TOTP secret and QR code
func (h *Handler) Generate2FAHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.CareStore.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	key, err := models.GenerateTOTPSecret(user.Username, totpIssuer)
	if err != nil {
		http.Error(w, "Failed to generate secret", http.StatusInternalServerError)
		return
	}

	qrCode, err := models.GenerateQRCode(key)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"secret":  key.Secret(),
		"qr_code": "data:image/png;base64," + qrCode,
		"issuer":  totpIssuer,
		"account": user.Username,
	})
}

// Enable2FAHandler verifies the TOTP code and enables 2FA
func (h *Handler) Enable2FAHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Secret string `json:"secret"`
		Code   string `json:"code"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if !models.VerifyTOTPCode(req.Secret, req.Code) {
		http.Error(w, "Invalid verification code", http.StatusUnauthorized)
		return
	}

	if err := h.CareStore.UpdateUser2FA(r.Context(), userID, req.Secret, true); err != nil {
		log.Printf("Failed to enable 2FA: %v", err)
		http.Error(w, "Failed to enable 2FA", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "2FA enabled successfully"})
}

// Disable2FAHandler disables 2FA for the current user
func (h *Handler) Disable2FAHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _, _ := GetCurrentUser(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.CareStore.Disable2FA(r.Context(), userID); err != nil {
		log.Printf("Failed to disable 2FA: %v", err)
		http.Error(w, "Failed to disable 2FA", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "2FA disabled"})
}
