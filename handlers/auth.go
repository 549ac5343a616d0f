package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Jamesscott34/DevopsCA/middleware"
	"github.com/Jamesscott34/DevopsCA/models"
	"github.com/Jamesscott34/DevopsCA/service"
	"github.com/Jamesscott34/DevopsCA/store"
	"github.com/Jamesscott34/DevopsCA/utils"
	"github.com/golang-jwt/jwt/v5"
)

type AuthHandler struct {
	DB        *store.DB
	JWTSecret string
	Mail      service.Mailer // nil disables the welcome email
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
	IsAdmin bool         `json:"isAdmin"`
}

type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// Register creates a regular user account and logs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"username, email and password required"}`, http.StatusBadRequest)
		return
	}
	if req.Password != req.ConfirmPassword {
		http.Error(w, `{"error":"passwords do not match"}`, http.StatusBadRequest)
		return
	}
	if existing, err := h.DB.UserByUsername(r.Context(), req.Username); err != nil {
		http.Error(w, `{"error":"registration failed"}`, http.StatusInternalServerError)
		return
	} else if existing != nil {
		http.Error(w, `{"error":"username already taken"}`, http.StatusConflict)
		return
	}
	if existing, err := h.DB.UserByEmail(r.Context(), req.Email); err != nil {
		http.Error(w, `{"error":"registration failed"}`, http.StatusInternalServerError)
		return
	} else if existing != nil {
		http.Error(w, `{"error":"email already in use"}`, http.StatusConflict)
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		http.Error(w, `{"error":"registration failed"}`, http.StatusInternalServerError)
		return
	}
	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  hash,
		Role:      models.RoleRegular,
		CreatedAt: time.Now(),
	}
	id, err := h.DB.CreateUser(r.Context(), user)
	if err != nil {
		http.Error(w, `{"error":"registration failed"}`, http.StatusInternalServerError)
		return
	}
	user.ID = id

	if h.Mail != nil {
		// Fire and forget; a mail failure never fails registration.
		go func(username, email string) {
			body := "Hi " + username + ", welcome to the Book Catalog App."
			if err := h.Mail.Send(email, "Welcome to Book Catalog!", body); err != nil {
				log.Printf("welcome email to %s: %v", email, err)
			}
		}(user.Username, user.Email)
	}

	token, err := h.createToken(user)
	if err != nil {
		http.Error(w, `{"error":"could not create token"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(LoginResponse{Token: token, User: user, IsAdmin: user.IsAdmin()})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, `{"error":"username and password required"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
		return
	}
	if user == nil || !utils.CheckPassword(req.Password, user.Password) {
		http.Error(w, `{"error":"invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	token, err := h.createToken(user)
	if err != nil {
		http.Error(w, `{"error":"could not create token"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token, User: user, IsAdmin: user.IsAdmin()})
}

// ChangePassword updates the current user's password after verifying the old one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.NewPassword == "" || req.NewPassword != req.ConfirmNewPassword {
		http.Error(w, `{"error":"new passwords do not match"}`, http.StatusBadRequest)
		return
	}
	if req.NewPassword == req.CurrentPassword {
		http.Error(w, `{"error":"new password must be different from current password"}`, http.StatusBadRequest)
		return
	}
	if !utils.CheckPassword(req.CurrentPassword, user.Password) {
		http.Error(w, `{"error":"current password is incorrect"}`, http.StatusBadRequest)
		return
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, `{"error":"failed to change password"}`, http.StatusInternalServerError)
		return
	}
	if err := h.DB.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		http.Error(w, `{"error":"failed to change password"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Password changed successfully."})
}

func (h *AuthHandler) createToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour * 7)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}
