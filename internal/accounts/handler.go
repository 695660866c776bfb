package accounts

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/web"
)

type Accounts interface {
	RegisterUser(ctx context.Context, in Credentials) (*domain.User, error)
	CreateAdmin(ctx context.Context, actor domain.Principal, in NewAdmin) (*domain.User, error)
	ListAdmins(ctx context.Context, actor domain.Principal) ([]domain.User, error)
	Authenticate(ctx context.Context, email, password string) (domain.Principal, error)
}

type Handler struct {
	accounts      Accounts
	issuer        *auth.Issuer
	secureCookies bool
	logger        *slog.Logger
}

func NewHandler(accounts Accounts, issuer *auth.Issuer, secureCookies bool, logger *slog.Logger) *Handler {
	return &Handler{
		accounts:      accounts,
		issuer:        issuer,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.accounts.RegisterUser(r.Context(), req)
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user registered", "user_id", u.ID)
	web.WriteJSON(w, h.logger, http.StatusCreated, u)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}

	token, err := h.issuer.Issue(p)
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, token, h.issuer, h.secureCookies)
	h.logger.Info("user signed in", "user_id", p.UserID, "role", p.Role)
	web.WriteJSON(w, h.logger, http.StatusOK, map[string]any{"token": token, "user": p})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession reports the current caller, anonymous included.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	web.WriteJSON(w, h.logger, http.StatusOK, map[string]any{
		"authenticated": p.Authenticated(),
		"user":          p,
		"is_admin":      p.Role.Staff(),
	})
}

func (h *Handler) HandleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.accounts.ListAdmins(r.Context(), auth.PrincipalFrom(r.Context()))
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}
	web.WriteJSON(w, h.logger, http.StatusOK, admins)
}

func (h *Handler) HandleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	actor := auth.PrincipalFrom(r.Context())
	if err := auth.Authorize(actor, domain.RoleSuperAdmin); err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}

	var req NewAdmin
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.accounts.CreateAdmin(r.Context(), actor, req)
	if err != nil {
		web.WriteServiceError(w, h.logger, err)
		return
	}
	web.WriteJSON(w, h.logger, http.StatusCreated, u)
}
