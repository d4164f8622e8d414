package security

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxNameLength defines the maximum allowed length of a name
	MaxNameLength = 100
)

var (
	// ErrNameTooLong is returned when a name exceeds MaxNameLength runes.
	ErrNameTooLong = errors.New("name too long")
	// ErrNameInvalid is returned when a name contains disallowed content.
	ErrNameInvalid = errors.New("name contains invalid characters")
)

// ValidateName validates a name and returns it trimmed. The same rule applies
// to stored names and to lookup conditions, so every stored name can be looked up.
// Values reach the database as bound parameters; content is not filtered for SQL.
// An empty value is accepted and means "no condition".
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}

	if !utf8.ValidString(name) {
		return "", ErrNameInvalid
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrNameTooLong
	}

	for _, char := range name {
		if unicode.IsControl(char) {
			return "", ErrNameInvalid
		}
	}

	return name, nil
}
