package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-api/internal/api/respond"
	"github.com/clinicdesk/clinic-api/internal/session"
)

// PortalClaims are the JWT claims the portal issues at sign-in. The subject
// is the user id; identity management itself lives outside this service.
type PortalClaims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// PortalAuth verifies the HMAC-signed portal JWT and attaches the resulting
// session to the request context. Missing or invalid tokens end the request
// with 401.
func PortalAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				respond.Fail(w, http.StatusUnauthorized, respond.CodeUnauthorized, "portal auth disabled")
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				respond.Fail(w, http.StatusUnauthorized, respond.CodeUnauthorized, "missing authorization header")
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")

			claims := &PortalClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				respond.Fail(w, http.StatusUnauthorized, respond.CodeUnauthorized, "invalid token")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				respond.Fail(w, http.StatusUnauthorized, respond.CodeUnauthorized, "invalid token subject")
				return
			}
			role := session.Role(claims.Role)
			if !role.Valid() {
				respond.Fail(w, http.StatusUnauthorized, respond.CodeUnauthorized, "unknown role")
				return
			}

			sess := &session.Session{
				UserID: userID,
				Role:   role,
				Email:  claims.Email,
				Name:   claims.Name,
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}
