package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/web"
)

const SessionCookie = "session"

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller resolved by Session, or the anonymous
// principal.
func PrincipalFrom(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(principalKey{}).(domain.Principal)
	return p
}

// Session resolves the session cookie or bearer token on every request.
// Missing or invalid tokens leave the request anonymous.
func Session(issuer *Issuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := issuer.Parse(token)
			if err != nil {
				logger.Debug("ignoring session token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func tokenFrom(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuthenticated rejects anonymous callers with 401.
func RequireAuthenticated(logger *slog.Logger, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFrom(r.Context()).Authenticated() {
			web.WriteServiceError(w, logger, domain.ErrUnauthenticated)
			return
		}
		h(w, r)
	}
}

// RequireRole rejects anonymous callers with 401 and callers holding none of
// roles with 403.
func RequireRole(logger *slog.Logger, h http.HandlerFunc, roles ...domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := Authorize(PrincipalFrom(r.Context()), roles...); err != nil {
			web.WriteServiceError(w, logger, err)
			return
		}
		h(w, r)
	}
}

// Authorize is the check services run before touching data.
func Authorize(p domain.Principal, roles ...domain.Role) error {
	if !p.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !p.HasRole(roles...) {
		return domain.ErrForbidden
	}
	return nil
}

func SetSessionCookie(w http.ResponseWriter, token string, issuer *Issuer, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(issuer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

