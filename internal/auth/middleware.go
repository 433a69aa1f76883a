package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Auth modes.
const (
	ModeDisabled = "disabled"
	ModeToken    = "token"
	ModeJWT      = "jwt"
)

// Options configures Middleware.
type Options struct {
	Mode string
	// Token is the static bearer token accepted in token mode.
	Token string
	// JWTSecret is the HS256 secret used to verify tokens in jwt mode.
	JWTSecret string
	// JWTAudience, when set, must appear in the token's aud claim.
	JWTAudience string
	// DevUserID is the identity assumed in disabled and token modes.
	DevUserID string
}

var errMissingSubject = errors.New("token has no subject")

// Middleware attaches the caller identity to the request context.
//
//   - disabled: every request runs as DevUserID (anonymous when empty).
//   - token: a matching "Authorization: Bearer <token>" runs as DevUserID;
//     anything else is rejected with 401.
//   - jwt: a valid token runs as its sub claim; no Authorization header means
//     an anonymous request; an invalid token is rejected with 401.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch opts.Mode {
			case ModeToken:
				if bearer(r) != opts.Token {
					unauthorized(w)
					return
				}
				next.ServeHTTP(w, withDevUser(r, opts.DevUserID))
			case ModeJWT:
				raw := bearer(r)
				if raw == "" {
					next.ServeHTTP(w, r)
					return
				}
				userID, err := VerifyJWT(raw, opts.JWTSecret, opts.JWTAudience)
				if err != nil {
					slog.Debug("rejecting token", slog.String("error", err.Error()))
					unauthorized(w)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
			default:
				next.ServeHTTP(w, withDevUser(r, opts.DevUserID))
			}
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// VerifyJWT validates an HS256 token and returns its subject.
func VerifyJWT(raw, secret, audience string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(audience))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, parserOpts...)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func withDevUser(r *http.Request, userID string) *http.Request {
	if userID == "" {
		return r
	}
	return r.WithContext(WithUserID(r.Context(), userID))
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
