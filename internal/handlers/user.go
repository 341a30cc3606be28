// internal/handlers/user.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/auth"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/lobby"
)

// AuthCookieName holds the identity token between connections.
const AuthCookieName = "auth_token"

// EnsureSessionIdentity returns the identity for a new connection. A valid
// token from the "token" query parameter or the auth cookie is reused unless
// that identity is already connected; otherwise a fresh identity is minted and
// stored in the cookie.
func EnsureSessionIdentity(w http.ResponseWriter, r *http.Request, dir *lobby.Directory) (string, string, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = extractCookieToken(r.Header.Get("Cookie"), AuthCookieName)
	}
	if token != "" {
		if id, err := auth.AuthenticateJWT(token); err == nil && !dir.Connected(id) {
			return id, token, nil
		}
	}

	id := uuid.NewString()
	newToken, err := auth.CreateJWT(id)
	if err != nil {
		return "", "", fmt.Errorf("failed to create session JWT: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    newToken,
		HttpOnly: true,
		Path:     "/",
	})
	return id, newToken, nil
}
