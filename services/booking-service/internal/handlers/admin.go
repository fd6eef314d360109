package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/libs/auth"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler issues shop-staff tokens. There is no self-service signup;
// the single admin credential comes from the environment as a bcrypt hash.
type AdminHandler struct {
	logger       *slog.Logger
	jwtSecret    string
	adminEmail   string
	passwordHash string
	tokenTTL     time.Duration
}

type AdminConfig struct {
	JWTSecret    string
	AdminEmail   string
	PasswordHash string
	TokenTTL     time.Duration
}

func NewAdminHandler(logger *slog.Logger, cfg AdminConfig) *AdminHandler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &AdminHandler{
		logger:       logger,
		jwtSecret:    cfg.JWTSecret,
		adminEmail:   strings.TrimSpace(strings.ToLower(cfg.AdminEmail)),
		passwordHash: strings.TrimSpace(cfg.PasswordHash),
		tokenTTL:     cfg.TokenTTL,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.passwordHash == "" {
		http.Error(w, "admin login not configured", http.StatusServiceUnavailable)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	if email != h.adminEmail || bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)) != nil {
		h.logger.Warn("admin login rejected", "email", email)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	now := time.Now().UTC()
	exp := now.Add(h.tokenTTL)
	token, err := auth.SignHS256(auth.Claims{
		Sub:   "admin",
		Email: email,
		Role:  "admin",
		Iat:   now.Unix(),
		Exp:   exp.Unix(),
	}, h.jwtSecret)
	if err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	h.logger.Info("admin login succeeded", "email", email)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: exp.Format(time.RFC3339),
	})
}

// RequireAdmin guards staff-only routes with a bearer token carrying the
// admin role.
func RequireAdmin(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := auth.ParseAndVerifyHS256(token, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if claims.Role != "admin" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
