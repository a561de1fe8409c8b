package cipher

import "testing"

func TestAtbashCipher(t *testing.T) {
	t.Run("maps Hello to Svool", func(t *testing.T) {
		if got := AtbashCipher("Hello"); got != "Svool" {
			t.Fatalf("AtbashCipher(Hello) = %q, want Svool", got)
		}
	})

	t.Run("is self-inverse", func(t *testing.T) {
		in := "The Quick Brown Fox, 1984!"
		if got := AtbashCipher(AtbashCipher(in)); got != in {
			t.Fatalf("double atbash changed text: %q", got)
		}
	})

	t.Run("passes non-letters through", func(t *testing.T) {
		if got := AtbashCipher("123 !?"); got != "123 !?" {
			t.Fatalf("non-letters were altered: %q", got)
		}
	})
}

func TestCaesarCipher(t *testing.T) {
	t.Run("shift 3 maps abc to def", func(t *testing.T) {
		if got := CaesarCipher("abc", 3, Encrypt); got != "def" {
			t.Fatalf("CaesarCipher(abc, 3) = %q, want def", got)
		}
	})

	t.Run("wraps around the alphabet preserving case", func(t *testing.T) {
		if got := CaesarCipher("XyZ", 3, Encrypt); got != "AbC" {
			t.Fatalf("CaesarCipher(XyZ, 3) = %q, want AbC", got)
		}
	})

	t.Run("decrypt inverts encrypt", func(t *testing.T) {
		in := "Attack at dawn."
		enc := CaesarCipher(in, 7, Encrypt)
		if got := CaesarCipher(enc, 7, Decrypt); got != in {
			t.Fatalf("round trip = %q, want %q", got, in)
		}
	})

	t.Run("handles negative shifts", func(t *testing.T) {
		if got := CaesarCipher("abc", -1, Encrypt); got != "zab" {
			t.Fatalf("CaesarCipher(abc, -1) = %q, want zab", got)
		}
	})
}

func TestVigenereCipher(t *testing.T) {
	t.Run("key KEY on AAAA yields KEYK", func(t *testing.T) {
		if got := VigenereCipher("AAAA", "KEY", Encrypt); got != "KEYK" {
			t.Fatalf("VigenereCipher(AAAA, KEY) = %q, want KEYK", got)
		}
	})

	t.Run("key index does not advance on non-letters", func(t *testing.T) {
		if got := VigenereCipher("A A", "BC", Encrypt); got != "B C" {
			t.Fatalf("VigenereCipher(A A, BC) = %q, want B C", got)
		}
	})

	t.Run("key is filtered to letters", func(t *testing.T) {
		if got := VigenereCipher("AAAA", "K3E-Y!", Encrypt); got != "KEYK" {
			t.Fatalf("filtered key result = %q, want KEYK", got)
		}
	})

	t.Run("letterless key returns text unchanged", func(t *testing.T) {
		if got := VigenereCipher("Hello", "123", Encrypt); got != "Hello" {
			t.Fatalf("expected passthrough, got %q", got)
		}
	})

	t.Run("decrypt inverts encrypt", func(t *testing.T) {
		in := "Meet me at the usual place."
		enc := VigenereCipher(in, "JOKE", Encrypt)
		if got := VigenereCipher(enc, "JOKE", Decrypt); got != in {
			t.Fatalf("round trip = %q, want %q", got, in)
		}
	})
}

func TestProcess(t *testing.T) {
	t.Run("dispatches by cipher type", func(t *testing.T) {
		got, err := Process("abc", Caesar, Encrypt, 3, "")
		if err != nil {
			t.Fatalf("Process returned error: %v", err)
		}
		if got != "def" {
			t.Fatalf("Process caesar = %q, want def", got)
		}
	})

	t.Run("rejects unknown cipher type", func(t *testing.T) {
		if _, err := Process("abc", Type("rot13"), Encrypt, 0, ""); err == nil {
			t.Fatal("expected error for unknown cipher type")
		}
	})
}
