package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"carelink-go/internal/models"
)

// === Care-team user management ===

func (h *Handler) GetUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.CareStore.GetUsers(r.Context())
	if err != nil {
		http.Error(w, "Failed to get users", http.StatusInternalServerError)
		return
	}

	respUsers := make([]map[string]any, 0, len(users))
	for _, u := range users {
		respUsers = append(respUsers, map[string]any{
			"id":            u.ID,
			"username":      u.Username,
			"full_name":     u.FullName,
			"role":          u.Role,
			"totp_enabled":  u.TOTPEnabled,
			"created_at":    u.CreatedAt,
			"last_password": u.LastPasswordChange,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": respUsers})
}

func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if !models.ValidRole(req.Role) {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	user, err := h.CareStore.CreateUser(r.Context(), req.Username, req.FullName, req.Password, req.Role)
	if err != nil {
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	// New team members start with every notification channel on.
	if err := h.CareStore.SavePreferences(r.Context(), models.DefaultPreferences(user.ID)); err != nil {
		// Not fatal: the missing row reads as push-disabled until the
		// user opens settings.
		log.Printf("Failed to seed preferences for user %d: %v", user.ID, err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r.URL.Path)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	var req struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if !models.ValidRole(req.Role) {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	if err := h.CareStore.UpdateUser(r.Context(), id, req.Username, req.FullName, req.Role); err != nil {
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r.URL.Path)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.CareStore.DeleteUser(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func userIDFromPath(path string) (int, error) {
	rest := strings.TrimPrefix(path, "/api/admin/users/")
	return strconv.Atoi(strings.TrimSuffix(rest, "/"))
}
