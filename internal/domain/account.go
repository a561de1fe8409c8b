package domain

import "time"

// Account represents the core user model in our system. The lockout and
// two-factor columns are mutated by every login attempt, always inside a
// single row-locked transaction in the store layer.
type Account struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	PasswordHash        string     `json:"-"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LastFailedLoginAt   *time.Time `json:"last_failed_login_at,omitempty"`
	IsLocked            bool       `json:"is_locked"`
	LockoutUntil        *time.Time `json:"lockout_until,omitempty"`
	IsTwoFactorEnabled  bool       `json:"is_two_factor_enabled"`
	OTPSecret           string     `json:"-"`
	PhoneNumber         *string    `json:"phone_number,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// RegistrationRequest represents the data received from the client when
// creating a new account.
type RegistrationRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	PhoneNumber     string `json:"phone_number,omitempty"`
}

// RecipientKind distinguishes the two notification channels.
type RecipientKind string

const (
	EmailRecipientKind RecipientKind = "email"
	SMSRecipientKind   RecipientKind = "sms"
)

// Recipient is a stored destination for the scheduled joke digests. Address
// holds either an email address or a phone number depending on Kind.
type Recipient struct {
	ID        string        `json:"id"`
	Kind      RecipientKind `json:"kind"`
	Name      string        `json:"name"`
	Address   string        `json:"address"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
}

// Joke is a single joke fetched from the external joke API, already
// flattened into display text.
type Joke struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}
