package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/sessions"
)

const sessionName = "carelink-session"

var sessionStore *sessions.CookieStore

// InitSessionStore keys the cookie store from SESSION_SECRET. Called from
// main after the environment is loaded; a package-level initializer would
// read the variable before .env is applied and silently fall back to the
// development secret.
func InitSessionStore() {
	sessionStore = sessions.NewCookieStore([]byte(sessionSecret()))
}

func getSessionStore() *sessions.CookieStore {
	if sessionStore == nil {
		InitSessionStore()
	}
	return sessionStore
}

func sessionSecret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	log.Println("SESSION_SECRET not set, using insecure development fallback")
	return "secret-key-change-in-production"
}

// LoginHandler handles login
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Code     string `json:"code"` // TOTP code when 2FA is enabled
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.CareStore.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if !user.CheckPassword(req.Password) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user.TOTPEnabled {
		if req.Code == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"requires_2fa": true,
				"user_id":      user.ID,
			})
			return
		}
		if !verifyTOTP(user.TOTPSecret, req.Code) {
			http.Error(w, "Invalid verification code", http.StatusUnauthorized)
			return
		}
	}

	session, _ := getSessionStore().Get(r, sessionName)
	session.Values["user_id"] = user.ID
	session.Values["username"] = user.Username
	session.Values["role"] = user.Role
	session.Save(r, w)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"user":     user,
		"redirect": "/dashboard",
	})
}

// LogoutHandler handles logout
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := getSessionStore().Get(r, sessionName)
	session.Values["user_id"] = nil
	session.Options.MaxAge = -1
	session.Save(r, w)

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// AuthMiddleware checks if user is authenticated
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := getSessionStore().Get(r, sessionName)
		userID, ok := session.Values["user_id"].(int)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// AdminMiddleware checks if user is admin
func AdminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := getSessionStore().Get(r, sessionName)
		role, ok := session.Values["role"].(string)
		if !ok || role != "admin" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// GetCurrentUser returns the current user from session
func GetCurrentUser(r *http.Request) (int, string, string) {
	session, _ := getSessionStore().Get(r, sessionName)
	userID, _ := session.Values["user_id"].(int)
	username, _ := session.Values["username"].(string)
	role, _ := session.Values["role"].(string)
	return userID, username, role
}

// InitDefaultAdmin creates a default admin user when the user table is empty
func (h *Handler) InitDefaultAdmin(ctx context.Context) {
	users, err := h.CareStore.GetUsers(ctx)
	if err != nil || len(users) == 0 {
		user, err := h.CareStore.CreateUser(ctx, "admin", "Administrator", "admin123", "admin")
		if err != nil {
			log.Println("Failed to create default admin:", err)
		} else {
			log.Printf("Created default admin user: %s / admin123", user.Username)
		}
	}
}
