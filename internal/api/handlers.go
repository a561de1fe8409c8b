/**
 * @description
 * HTTP handlers for registration, the two-step login flow, and two-factor
 * enrollment. Login outcomes only ever expose the error taxonomy, never
 * internal failure detail.
 */
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/secsys/security-service/internal/auth"
	"github.com/secsys/security-service/internal/domain"
)

// sessionCookieName carries the server-side session id across the two login
// steps and beyond.
const sessionCookieName = "session_id"

// AuthHandler handles the account and login endpoints.
type AuthHandler struct {
	svc    *auth.Service
	tokens *TokenIssuer
}

// NewAuthHandler creates a new handler for the auth endpoints.
func NewAuthHandler(svc *auth.Service, tokens *TokenIssuer) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response body: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.svc.Register(r.Context(), req)
	if err != nil {
		var validationErr auth.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Error())
		case errors.Is(err, domain.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "Username already exists")
		default:
			log.Printf("Error registering account: %v", err)
			writeError(w, http.StatusInternalServerError, "Could not create account")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       account.ID,
		"username": account.Username,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /auth/login, the first step of the state machine.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sessionID := h.ensureSessionCookie(w, r)

	result, err := h.svc.Login(r.Context(), sessionID, req.Username, req.Password)
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	if result.State == auth.StateSecondFactorRequired {
		writeJSON(w, http.StatusOK, map[string]string{"status": "2fa_required"})
		return
	}

	token, err := h.tokens.Mint(result.Account.ID, sessionID)
	if err != nil {
		log.Printf("Error minting access token: %v", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "authenticated",
		"token":   token,
		"account": result.Account,
	})
}

type verifyRequest struct {
	Code string `json:"code"`
}

// VerifySecondFactor handles POST /auth/2fa/verify, the second login step.
func (h *AuthHandler) VerifySecondFactor(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sessionID, ok := h.sessionFromCookie(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"status": "login_required",
			"error":  auth.ErrNoPendingSecondFactor.Error(),
		})
		return
	}

	account, err := h.svc.VerifySecondFactor(r.Context(), sessionID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNoPendingSecondFactor):
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"status": "login_required",
				"error":  err.Error(),
			})
		case errors.Is(err, auth.ErrInvalidSecondFactor):
			// The pending marker survives; the caller may retry.
			writeError(w, http.StatusUnauthorized, "Invalid 2FA token. Please try again.")
		default:
			log.Printf("Error verifying second factor: %v", err)
			writeError(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	token, err := h.tokens.Mint(account.ID, sessionID)
	if err != nil {
		log.Printf("Error minting access token: %v", err)
		writeError(w, http.StatusInternalServerError, "Verification failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "authenticated",
		"token":   token,
		"account": account,
	})
}

// Logout handles POST /auth/logout. Requires authentication.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}
	if err := h.svc.Logout(r.Context(), sessionID); err != nil {
		log.Printf("Error during logout: %v", err)
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me handles GET /auth/me. Requires authentication.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := GetAccountID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}
	account, err := h.svc.Account(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		log.Printf("Error fetching account: %v", err)
		writeError(w, http.StatusInternalServerError, "Could not fetch account")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// TwoFactorSetup handles POST /auth/2fa/setup. Requires authentication.
func (h *AuthHandler) TwoFactorSetup(w http.ResponseWriter, r *http.Request) {
	accountID, _ := GetAccountID(r.Context())

	uri, secret, err := h.svc.SetupBegin(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, auth.ErrTwoFactorAlreadyEnabled) {
			writeError(w, http.StatusConflict, "2FA is already enabled for your account.")
			return
		}
		log.Printf("Error beginning 2FA setup: %v", err)
		writeError(w, http.StatusInternalServerError, "Could not begin 2FA setup")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"provisioning_uri": uri,
		"secret":           secret,
	})
}

// TwoFactorConfirm handles POST /auth/2fa/confirm. Requires authentication.
func (h *AuthHandler) TwoFactorConfirm(w http.ResponseWriter, r *http.Request) {
	accountID, _ := GetAccountID(r.Context())

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.svc.SetupConfirm(r.Context(), accountID, req.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrTwoFactorAlreadyEnabled):
			writeError(w, http.StatusConflict, "2FA is already enabled for your account.")
		case errors.Is(err, auth.ErrInvalidSecondFactor):
			writeError(w, http.StatusBadRequest, "Invalid token. Please try again.")
		default:
			log.Printf("Error confirming 2FA setup: %v", err)
			writeError(w, http.StatusInternalServerError, "Could not enable 2FA")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "enabled"})
}

// TwoFactorDisable handles POST /auth/2fa/disable. Requires authentication
// and a valid current code.
func (h *AuthHandler) TwoFactorDisable(w http.ResponseWriter, r *http.Request) {
	accountID, _ := GetAccountID(r.Context())

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.svc.Disable(r.Context(), accountID, req.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrTwoFactorNotEnabled):
			writeError(w, http.StatusConflict, "2FA is not enabled for your account.")
		case errors.Is(err, auth.ErrInvalidSecondFactor):
			writeError(w, http.StatusBadRequest, "Invalid token. Please try again.")
		default:
			log.Printf("Error disabling 2FA: %v", err)
			writeError(w, http.StatusInternalServerError, "Could not disable 2FA")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
}

func (h *AuthHandler) writeLoginError(w http.ResponseWriter, err error) {
	var lockedErr *auth.AccountLockedError
	switch {
	case errors.As(err, &lockedErr):
		writeJSON(w, http.StatusLocked, map[string]any{
			"error":             lockedErr.Error(),
			"remaining_minutes": lockedErr.RemainingMinutes,
		})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid username or password.")
	default:
		log.Printf("Error during login: %v", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
	}
}

func (h *AuthHandler) sessionFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (h *AuthHandler) ensureSessionCookie(w http.ResponseWriter, r *http.Request) string {
	if sessionID, ok := h.sessionFromCookie(r); ok {
		return sessionID
	}
	sessionID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID
}
