package middleware

import (
	"context"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const adminClaimsKey contextKey = "adminClaims"

// AdminUser is the basic auth user name paired with ADMIN_PASSWORD.
const AdminUser = "admin"

// AdminAuth guards admin endpoints. A bearer token is checked as an HMAC-signed JWT
// when jwtSecret is set; otherwise basic auth with password applies. With neither
// configured every request is refused.
func AdminAuth(jwtSecret, password string) func(http.Handler) http.Handler {
	bearer := AdminJWT(jwtSecret)
	var basic func(http.Handler) http.Handler
	if password != "" {
		basic = chimw.BasicAuth("aria-admin", map[string]string{AdminUser: password})
	}
	return func(next http.Handler) http.Handler {
		viaJWT := bearer(next)
		var viaBasic http.Handler
		if basic != nil {
			viaBasic = basic(next)
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") || viaBasic == nil {
				viaJWT.ServeHTTP(w, r)
				return
			}
			viaBasic.ServeHTTP(w, r)
		})
	}
}

// AdminJWT enforces a simple HMAC-signed JWT for admin endpoints.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(jwt.RegisteredClaims)
	return claims, ok
}
