package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/secsys/security-service/internal/auth"
)

type contextKey string

const accountIDContextKey contextKey = "accountID"
const sessionIDContextKey contextKey = "sessionID"

// AuthMiddleware validates the bearer token and confirms the session behind
// it is still live, so logout immediately revokes outstanding tokens.
func AuthMiddleware(tokens *TokenIssuer, svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			tokenString, ok := bearerToken(authHeader)
			if !ok {
				http.Error(w, "Authorization required", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			accountID, err := svc.AuthenticatedAccountID(r.Context(), claims.SessionID)
			if err != nil || accountID != claims.Subject {
				http.Error(w, "Session expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accountIDContextKey, accountID)
			ctx = context.WithValue(ctx, sessionIDContextKey, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccountID returns the authenticated account id from request context.
func GetAccountID(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(accountIDContextKey).(string)
	return accountID, ok
}

// GetSessionID returns the authenticated session id from request context.
func GetSessionID(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDContextKey).(string)
	return sessionID, ok
}

func bearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}

	return token, true
}
