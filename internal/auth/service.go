/**
 * @description
 * Account and login orchestration: registration, the two-step password +
 * TOTP login flow, progressive lockout, and two-factor enrollment. Lockout
 * state is only ever mutated through the repository's row-locked mutate
 * calls so concurrent attempts against one account observe consistent
 * counters.
 */
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/secsys/security-service/internal/domain"
	"github.com/secsys/security-service/internal/session"
)

// AccountRepository is the persistence contract for accounts. The Mutate
// methods load the current row, apply fn, and persist the result inside a
// single transaction holding a row lock, so read-modify-write of the lockout
// fields is atomic per account.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	MutateByUsername(ctx context.Context, username string, fn func(*domain.Account) error) (*domain.Account, error)
	MutateByID(ctx context.Context, id string, fn func(*domain.Account) error) (*domain.Account, error)
}

// Session keys used by the login flow. The authenticated key and the pending
// marker are mutually exclusive for any in-progress login.
const (
	sessionKeyAccountID  = "account_id"
	sessionKeyPending2FA = "pending_2fa_account_id"
)

const bcryptCost = 12

// ValidationError reports a rejected registration input.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// LoginState is the outcome of a successful password verification.
type LoginState string

const (
	// StateAuthenticated means the login completed in one step.
	StateAuthenticated LoginState = "authenticated"
	// StateSecondFactorRequired means the password was accepted and a
	// pending-2FA marker now awaits the TOTP code.
	StateSecondFactorRequired LoginState = "second_factor_required"
)

// LoginResult carries the post-password outcome back to the handler.
type LoginResult struct {
	State   LoginState
	Account *domain.Account
}

// Service implements the authentication state machine on top of an account
// repository and a session store.
type Service struct {
	accounts   AccountRepository
	sessions   session.Store
	issuer     string
	pendingTTL time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService creates the auth service. pendingTTL bounds the lifetime of the
// pending-2FA marker; sessionTTL bounds authenticated sessions.
func NewService(accounts AccountRepository, sessions session.Store, issuer string, pendingTTL, sessionTTL time.Duration) *Service {
	if pendingTTL <= 0 {
		pendingTTL = 5 * time.Minute
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Service{
		accounts:   accounts,
		sessions:   sessions,
		issuer:     issuer,
		pendingTTL: pendingTTL,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)

// Register creates a new account. The OTP secret is generated immediately so
// later enrollment never races secret creation; two-factor auth starts off.
func (s *Service) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.Account, error) {
	username := strings.TrimSpace(req.Username)

	if n := utf8.RuneCountInString(username); n < 6 || n > 150 {
		return nil, ValidationError("username must be between 6 and 150 characters")
	}
	if !usernamePattern.MatchString(username) {
		return nil, ValidationError("username contains invalid characters")
	}
	if !isStrongPassword(req.Password) {
		return nil, ValidationError("password must be 8-72 characters with upper and lower case letters and a digit")
	}
	if req.Password != req.ConfirmPassword {
		return nil, ValidationError("passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	secret, err := NewOTPSecret(s.issuer, username)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Username:     username,
		PasswordHash: string(hash),
		OTPSecret:    secret,
	}
	if req.PhoneNumber != "" {
		phone := strings.TrimSpace(req.PhoneNumber)
		account.PhoneNumber = &phone
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// isStrongPassword requires 8-72 characters with upper case, lower case and
// a digit. 72 bytes is the bcrypt input limit.
func isStrongPassword(pwd string) bool {
	if len(pwd) < 8 || len(pwd) > 72 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, ch := range pwd {
		switch {
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= 'a' && ch <= 'z':
			hasLower = true
		case ch >= '0' && ch <= '9':
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

// Login runs the first step of the state machine: lockout check, expiry,
// password verification, and counter updates — all committed in one
// row-locked transaction before any outcome is reported. On success it
// either establishes the session or parks the account behind a pending-2FA
// marker, never both.
func (s *Service) Login(ctx context.Context, sessionID, username, password string) (*LoginResult, error) {
	var outcome error

	account, err := s.accounts.MutateByUsername(ctx, strings.TrimSpace(username), func(a *domain.Account) error {
		now := s.now()

		if a.IsLocked {
			if expired := CheckAndExpire(a, now); !expired {
				outcome = &AccountLockedError{RemainingMinutes: RemainingLockoutMinutes(a, now)}
				return nil
			}
		}

		if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
			RecordFailure(a, now)
			if a.IsLocked {
				outcome = &AccountLockedError{RemainingMinutes: RemainingLockoutMinutes(a, now)}
			} else {
				outcome = ErrInvalidCredentials
			}
			return nil
		}

		RecordSuccess(a)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// Reported identically to a bad password.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}

	if account.IsTwoFactorEnabled {
		if err := s.sessions.Delete(ctx, sessionID, sessionKeyAccountID); err != nil {
			return nil, err
		}
		if err := s.sessions.Set(ctx, sessionID, sessionKeyPending2FA, account.ID, s.pendingTTL); err != nil {
			return nil, err
		}
		return &LoginResult{State: StateSecondFactorRequired, Account: account}, nil
	}

	if err := s.establishSession(ctx, sessionID, account.ID); err != nil {
		return nil, err
	}
	return &LoginResult{State: StateAuthenticated, Account: account}, nil
}

// VerifySecondFactor runs the second step: it consumes the pending-2FA
// marker once the submitted TOTP code checks out. A wrong code leaves the
// marker in place so the caller can retry; it never touches the lockout
// counter.
func (s *Service) VerifySecondFactor(ctx context.Context, sessionID, code string) (*domain.Account, error) {
	accountID, err := s.sessions.Get(ctx, sessionID, sessionKeyPending2FA)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNoPendingSecondFactor
		}
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, ErrNoPendingSecondFactor
		}
		return nil, err
	}

	if !VerifyTOTP(account.OTPSecret, code, s.now()) {
		return nil, ErrInvalidSecondFactor
	}

	if err := s.sessions.Delete(ctx, sessionID, sessionKeyPending2FA); err != nil {
		return nil, err
	}
	if err := s.establishSession(ctx, sessionID, account.ID); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) establishSession(ctx context.Context, sessionID, accountID string) error {
	if err := s.sessions.Delete(ctx, sessionID, sessionKeyPending2FA); err != nil {
		return err
	}
	return s.sessions.Set(ctx, sessionID, sessionKeyAccountID, accountID, s.sessionTTL)
}

// AuthenticatedAccountID resolves a session to its account id, if the
// session is still live.
func (s *Service) AuthenticatedAccountID(ctx context.Context, sessionID string) (string, error) {
	return s.sessions.Get(ctx, sessionID, sessionKeyAccountID)
}

// Logout drops the authenticated session and any pending-2FA marker.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID, sessionKeyPending2FA); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID, sessionKeyAccountID)
}

// SetupBegin starts two-factor enrollment. It generates an OTP secret if the
// account somehow lacks one and returns the provisioning URI and secret for
// display. Enrollment is not complete until SetupConfirm.
func (s *Service) SetupBegin(ctx context.Context, accountID string) (uri, secret string, err error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return "", "", err
	}
	if account.IsTwoFactorEnabled {
		return "", "", ErrTwoFactorAlreadyEnabled
	}

	if account.OTPSecret == "" {
		account, err = s.accounts.MutateByID(ctx, accountID, func(a *domain.Account) error {
			if a.OTPSecret != "" {
				return nil
			}
			generated, genErr := NewOTPSecret(s.issuer, a.Username)
			if genErr != nil {
				return genErr
			}
			a.OTPSecret = generated
			return nil
		})
		if err != nil {
			return "", "", err
		}
	}

	return ProvisioningURI(account.OTPSecret, account.Username, s.issuer), account.OTPSecret, nil
}

// SetupConfirm completes enrollment once the caller proves possession of the
// secret with a valid code. On a bad code the account is left unchanged.
func (s *Service) SetupConfirm(ctx context.Context, accountID, code string) error {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.IsTwoFactorEnabled {
		return ErrTwoFactorAlreadyEnabled
	}
	if !VerifyTOTP(account.OTPSecret, code, s.now()) {
		return ErrInvalidSecondFactor
	}

	_, err = s.accounts.MutateByID(ctx, accountID, func(a *domain.Account) error {
		a.IsTwoFactorEnabled = true
		return nil
	})
	return err
}

// Disable turns two-factor auth off. It requires a valid current code so a
// hijacked session cannot silently drop the second factor, and it rotates
// the secret so a later re-enrollment never reuses the old one.
func (s *Service) Disable(ctx context.Context, accountID, code string) error {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.IsTwoFactorEnabled {
		return ErrTwoFactorNotEnabled
	}
	if !VerifyTOTP(account.OTPSecret, code, s.now()) {
		return ErrInvalidSecondFactor
	}

	rotated, err := NewOTPSecret(s.issuer, account.Username)
	if err != nil {
		return err
	}
	_, err = s.accounts.MutateByID(ctx, accountID, func(a *domain.Account) error {
		a.IsTwoFactorEnabled = false
		a.OTPSecret = rotated
		return nil
	})
	return err
}

// Account fetches an account by id for profile display.
func (s *Service) Account(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, accountID)
}
