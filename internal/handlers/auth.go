package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/visionline/api-middleware/internal/auth"
)

// AuthHandler exchanges the device platform's credential for a bearer token.
// There is no user store: the service has exactly one account, configured at
// deploy time with a bcrypt password hash.
type AuthHandler struct {
	authService  *auth.Service
	username     string
	passwordHash string
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, username, passwordHash string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		username:     username,
		passwordHash: passwordHash,
	}
}

// Login handles the platform credential exchange
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var loginReq loginRequest
	if err := json.Unmarshal(body, &loginReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if loginReq.Username == "" || loginReq.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	if loginReq.Username != h.username || !h.authService.CheckPassword(loginReq.Password, h.passwordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken(loginReq.Username)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	response := loginResponse{
		Token:     token,
		ExpiresIn: int64(h.authService.TokenExpiry().Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}
