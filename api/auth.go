package api

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/lab1702/subwar/world"
	"lukechampine.com/blake3"
)

type contextKey string

const userContextKey contextKey = "subwar_user"

// GenerateAPIKey mints a new opaque token: 32 bytes of crypto/rand
// hashed with blake3 so the token itself never reveals the entropy it
// was built from.
func GenerateAPIKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// HashPassword hashes a password with sha256. No bcrypt/argon2/scrypt
// import appears anywhere in the retrieved corpus, so this follows the
// one grounded precedent (Vitadek-OwnWorld's pkg/core/security.go) for
// "hash this opaque secret" rather than introducing an ungrounded
// dependency for password storage specifically.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// extractToken pulls the opaque API key from the Authorization: Bearer
// header, falling back to the api_key query parameter.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if rest, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return r.URL.Query().Get("api_key")
}

// RequireAuth resolves the caller's API key to a User and stores it in
// the request context, or rejects the request with 401.
func RequireAuth(w *world.World) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeError(rw, newError(KindUnauthorized, "missing API key"))
				return
			}

			w.Mu.Lock()
			user, ok := w.UserByAPIKey(token)
			w.Mu.Unlock()
			if !ok {
				writeError(rw, newError(KindUnauthorized, "invalid API key"))
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects any caller whose authenticated user is not an
// admin. Must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil || !user.IsAdmin {
			writeError(w, newError(KindForbidden, "admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext retrieves the authenticated User a preceding
// RequireAuth middleware attached to the request, or nil.
func UserFromContext(ctx context.Context) *world.User {
	u, _ := ctx.Value(userContextKey).(*world.User)
	return u
}
