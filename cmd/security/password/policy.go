package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validate checks password policy. It does not mutate input.
//
// Order matters for callers that surface messages: length first, then classes.
func (p Policy) Validate(password string) error {
	// Count characters (runes), not bytes, to be user-friendly.
	n := utf8.RuneCountInString(password)

	if n < p.MinLength {
		return ErrPasswordTooShort
	}
	maxBytes := p.MaxBytes
	if maxBytes <= 0 || maxBytes > maxInputBytes {
		maxBytes = maxInputBytes
	}
	if len(password) > maxBytes {
		return ErrPasswordTooLong
	}

	symbols := p.Symbols
	if symbols == "" {
		symbols = DefaultSymbols
	}
	if !hasAllClasses(password, symbols) {
		return ErrWeakPassword
	}

	if p.RejectVeryWeak && looksVeryWeak(password) {
		return ErrWeakPassword
	}

	return nil
}

// hasAllClasses requires one lowercase, one uppercase, one digit and one symbol.
func hasAllClasses(pw, symbols string) bool {
	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(symbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// looksVeryWeak is intentionally minimal and conservative.
// It is not a full zxcvbn-style estimator (non-goal).
func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}

	// Reject if all same char.
	allSame := true
	var first rune
	for i, r := range s {
		if i == 0 {
			first = r
			continue
		}
		if r != first {
			allSame = false
			break
		}
	}
	if allSame {
		return true
	}

	// Reject if it's only digits and short-ish (common PIN-like).
	onlyDigits := true
	for _, r := range s {
		if !unicode.IsDigit(r) {
			onlyDigits = false
			break
		}
	}
	if onlyDigits && utf8.RuneCountInString(s) < 12 {
		return true
	}

	// Reject common trivial patterns, ignoring the symbol/digit decorations users add to satisfy classes.
	lower := strings.ToLower(strings.TrimRight(s, "0123456789!@#$%^&*"))
	switch lower {
	case "password", "passw0rd", "qwerty", "letmein", "welcome", "admin":
		return true
	}

	return false
}
