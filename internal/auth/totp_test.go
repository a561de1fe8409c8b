package auth

import (
	"strings"
	"testing"
	"time"
)

func TestNewOTPSecret(t *testing.T) {
	first, err := NewOTPSecret("Security System", "alice01")
	if err != nil {
		t.Fatalf("NewOTPSecret: %v", err)
	}
	second, err := NewOTPSecret("Security System", "alice01")
	if err != nil {
		t.Fatalf("NewOTPSecret: %v", err)
	}

	// 20 bytes of entropy base32-encode to 32 characters.
	if len(first) != 32 {
		t.Fatalf("secret length = %d, want 32", len(first))
	}
	if first == second {
		t.Fatal("two generated secrets are identical")
	}
}

func TestVerifyTOTP(t *testing.T) {
	secret, err := NewOTPSecret("Security System", "alice01")
	if err != nil {
		t.Fatalf("NewOTPSecret: %v", err)
	}
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)

	code, err := GenerateTOTP(secret, now)
	if err != nil {
		t.Fatalf("GenerateTOTP: %v", err)
	}

	t.Run("accepts the current code", func(t *testing.T) {
		if !VerifyTOTP(secret, code, now) {
			t.Fatal("current code rejected")
		}
	})

	t.Run("accepts codes one step either side", func(t *testing.T) {
		past, err := GenerateTOTP(secret, now.Add(-30*time.Second))
		if err != nil {
			t.Fatalf("GenerateTOTP: %v", err)
		}
		future, err := GenerateTOTP(secret, now.Add(30*time.Second))
		if err != nil {
			t.Fatalf("GenerateTOTP: %v", err)
		}
		if !VerifyTOTP(secret, past, now) {
			t.Fatal("code from previous step rejected")
		}
		if !VerifyTOTP(secret, future, now) {
			t.Fatal("code from next step rejected")
		}
	})

	t.Run("rejects codes outside the skew window", func(t *testing.T) {
		stale, err := GenerateTOTP(secret, now.Add(-2*time.Minute))
		if err != nil {
			t.Fatalf("GenerateTOTP: %v", err)
		}
		if VerifyTOTP(secret, stale, now) {
			t.Fatal("code from two minutes ago accepted")
		}
	})

	t.Run("rejects malformed codes without error", func(t *testing.T) {
		for _, bad := range []string{"", "12345", "1234567", "12345a", "abcdef"} {
			if VerifyTOTP(secret, bad, now) {
				t.Fatalf("malformed code %q accepted", bad)
			}
		}
	})

	t.Run("rejects a valid code against a different secret", func(t *testing.T) {
		other, err := NewOTPSecret("Security System", "bob02")
		if err != nil {
			t.Fatalf("NewOTPSecret: %v", err)
		}
		if VerifyTOTP(other, code, now) {
			t.Fatal("code accepted against the wrong secret")
		}
	})
}

func TestProvisioningURI(t *testing.T) {
	uri := ProvisioningURI("JBSWY3DPEHPK3PXP", "alice@example.com", "Security System")

	if !strings.HasPrefix(uri, "otpauth://totp/Security%20System:alice@example.com") {
		t.Fatalf("unexpected label in %q", uri)
	}
	if !strings.Contains(uri, "secret=JBSWY3DPEHPK3PXP") {
		t.Fatalf("secret missing from %q", uri)
	}
	if !strings.Contains(uri, "issuer=Security+System") {
		t.Fatalf("issuer parameter missing from %q", uri)
	}
}
