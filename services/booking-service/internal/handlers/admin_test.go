package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/libs/auth"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	token, err := auth.SignHS256(auth.Claims{
		Sub:   "admin",
		Email: "owner@wizcuts.local",
		Role:  role,
		Iat:   time.Now().Unix(),
		Exp:   exp.Unix(),
	}, testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guarded := RequireAdmin(next, testSecret)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"admin token", "Bearer " + signToken(t, "admin", time.Now().Add(time.Hour)), http.StatusOK},
		{"customer role", "Bearer " + signToken(t, "customer", time.Now().Add(time.Hour)), http.StatusForbidden},
		{"expired token", "Bearer " + signToken(t, "admin", time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/bookings/x/confirm", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rw := httptest.NewRecorder()
			guarded.ServeHTTP(rw, req)

			if rw.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rw.Code)
			}
		})
	}
}

func newTestAdminHandler(t *testing.T, password string) *AdminHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return NewAdminHandler(testLogger(), AdminConfig{
		JWTSecret:    testSecret,
		AdminEmail:   "owner@wizcuts.local",
		PasswordHash: string(hash),
	})
}

func TestAdminLogin_IssuesUsableToken(t *testing.T) {
	h := newTestAdminHandler(t, "trim-and-fade")

	body := `{"email":"Owner@WizCuts.local","password":"trim-and-fade"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(body))
	rw := httptest.NewRecorder()
	h.Login(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}

	claims, err := auth.ParseAndVerifyHS256(resp.Token, testSecret)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Role != "admin" || claims.Email != "owner@wizcuts.local" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAdminLogin_RejectsBadCredentials(t *testing.T) {
	h := newTestAdminHandler(t, "trim-and-fade")

	cases := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email":"owner@wizcuts.local","password":"buzzcut"}`},
		{"wrong email", `{"email":"intruder@example.com","password":"trim-and-fade"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(tc.body))
			rw := httptest.NewRecorder()
			h.Login(rw, req)

			if rw.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rw.Code)
			}
		})
	}
}

func TestAdminLogin_UnconfiguredReturns503(t *testing.T) {
	h := NewAdminHandler(testLogger(), AdminConfig{JWTSecret: testSecret})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`{}`))
	rw := httptest.NewRecorder()
	h.Login(rw, req)

	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rw.Code)
	}
}
