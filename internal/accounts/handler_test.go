package accounts

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestHandler_LoginFlow(t *testing.T) {
	svc, _ := newTestService()
	issuer := auth.NewIssuer("secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(svc, issuer, false, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.HandleRegister)
	mux.HandleFunc("POST /login", h.HandleLogin)
	mux.HandleFunc("GET /session", h.HandleSession)
	handler := auth.Session(issuer, logger)(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"ana@example.com","password":"secret1"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("password hash leaked in response")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"ana@example.com","password":"secret1"}`)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"ana@example.com","password":"nope"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"ana@example.com","password":"secret1"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			session = c
		}
	}
	if session == nil || !session.HttpOnly {
		t.Fatalf("expected HttpOnly session cookie, got %+v", session)
	}

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body struct {
		Authenticated bool             `json:"authenticated"`
		User          domain.Principal `json:"user"`
		IsAdmin       bool             `json:"is_admin"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if !body.Authenticated || body.User.Email != "ana@example.com" || body.IsAdmin {
		t.Errorf("unexpected session %+v", body)
	}
}

func TestHandler_HandleCreateAdmin(t *testing.T) {
	svc, store := newTestService()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(svc, auth.NewIssuer("secret", time.Hour), false, logger)

	body := `{"email":"staff@example.com","password":"secret1","role":"ADMIN"}`

	tests := []struct {
		name      string
		principal domain.Principal
		want      int
	}{
		{"user refused", domain.Principal{UserID: "u", Role: domain.RoleUser}, http.StatusForbidden},
		{"admin refused", domain.Principal{UserID: "a", Role: domain.RoleAdmin}, http.StatusForbidden},
		{"super admin", superAdmin, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/admins", strings.NewReader(body))
			req = req.WithContext(auth.WithPrincipal(req.Context(), tt.principal))
			rec := httptest.NewRecorder()
			h.HandleCreateAdmin(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	if len(store.users) != 1 {
		t.Errorf("expected exactly one admin row, got %d", len(store.users))
	}
}
