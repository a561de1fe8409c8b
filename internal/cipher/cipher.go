/**
 * @description
 * Classical substitution ciphers exposed by the cipher tools API and used to
 * build the encrypted variants in the joke digests. All transforms preserve
 * case and pass non-letters through unchanged.
 */
package cipher

import (
	"fmt"
	"strings"
)

// Type identifies one of the supported ciphers.
type Type string

const (
	Atbash   Type = "atbash"
	Caesar   Type = "caesar"
	Vigenere Type = "vigenere"
)

// Mode selects the direction of a transform.
type Mode string

const (
	Encrypt Mode = "encrypt"
	Decrypt Mode = "decrypt"
)

// AtbashCipher reverses the alphabet (A->Z, B->Y, ...). Encryption and
// decryption are the same operation.
func AtbashCipher(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, ch := range text {
		switch {
		case ch >= 'A' && ch <= 'Z':
			b.WriteRune('Z' - (ch - 'A'))
		case ch >= 'a' && ch <= 'z':
			b.WriteRune('z' - (ch - 'a'))
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// CaesarCipher shifts every letter by a fixed amount, mod 26.
func CaesarCipher(text string, shift int, mode Mode) string {
	if mode == Decrypt {
		shift = -shift
	}
	// Normalize so the mod below never sees a negative operand.
	shift = ((shift % 26) + 26) % 26

	var b strings.Builder
	b.Grow(len(text))
	for _, ch := range text {
		switch {
		case ch >= 'A' && ch <= 'Z':
			b.WriteRune('A' + (ch-'A'+rune(shift))%26)
		case ch >= 'a' && ch <= 'z':
			b.WriteRune('a' + (ch-'a'+rune(shift))%26)
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// VigenereCipher shifts letters by a repeating keyword. The key is filtered
// to letters before use; the key index only advances on letters of the input.
// An empty or letterless key returns the text unchanged.
func VigenereCipher(text, key string, mode Mode) string {
	cleaned := make([]rune, 0, len(key))
	for _, ch := range strings.ToUpper(key) {
		if ch >= 'A' && ch <= 'Z' {
			cleaned = append(cleaned, ch)
		}
	}
	if len(cleaned) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	keyIndex := 0
	for _, ch := range text {
		if (ch < 'A' || ch > 'Z') && (ch < 'a' || ch > 'z') {
			b.WriteRune(ch)
			continue
		}
		shift := int(cleaned[keyIndex%len(cleaned)] - 'A')
		if mode == Decrypt {
			shift = -shift
		}
		shift = ((shift % 26) + 26) % 26
		if ch >= 'A' && ch <= 'Z' {
			b.WriteRune('A' + (ch-'A'+rune(shift))%26)
		} else {
			b.WriteRune('a' + (ch-'a'+rune(shift))%26)
		}
		keyIndex++
	}
	return b.String()
}

// Process applies the named cipher to text. Shift is only used by Caesar,
// key only by Vigenere.
func Process(text string, cipherType Type, mode Mode, shift int, key string) (string, error) {
	switch cipherType {
	case Atbash:
		return AtbashCipher(text), nil
	case Caesar:
		return CaesarCipher(text, shift, mode), nil
	case Vigenere:
		return VigenereCipher(text, key, mode), nil
	default:
		return "", fmt.Errorf("unknown cipher type: %s", cipherType)
	}
}
