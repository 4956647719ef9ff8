package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bantamhq/arbor/internal/auth"
)

// authError represents an authentication error with an associated HTTP status code.
type authError struct {
	message string
	status  int
}

func (e *authError) Error() string {
	return e.message
}

// writeAuthError writes an authentication error response with appropriate headers.
func writeAuthError(w http.ResponseWriter, err error) {
	if authErr, ok := err.(*authError); ok {
		if authErr.status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", `Bearer realm="Arbor"`)
		}
		JSONError(w, authErr.status, authErr.message)
		return
	}
	JSONError(w, http.StatusInternalServerError, "Internal server error")
}

// BearerAuthMiddleware requires the server token in the Authorization
// header. A nil verifier disables authentication.
func BearerAuthMiddleware(v *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := validateBearerToken(v, r); err != nil {
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// validateBearerToken extracts the token from the Bearer Auth header and
// checks it against the stored hash.
func validateBearerToken(v *auth.Verifier, r *http.Request) error {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return &authError{"Authentication required", http.StatusUnauthorized}
	}

	rawToken, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return &authError{"Invalid authorization scheme, Bearer required", http.StatusUnauthorized}
	}

	if err := v.Verify(rawToken); err != nil {
		return &authError{"Invalid token", http.StatusUnauthorized}
	}
	return nil
}

// requireQuery reads a mandatory query parameter, writing a 400 when absent.
func requireQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		JSONError(w, http.StatusBadRequest, fmt.Sprintf("%s is required", name))
		return "", false
	}
	return v, true
}
