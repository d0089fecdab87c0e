// Package phone canonicalizes phone numbers so uniqueness is checked on one form.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalid = errors.New("phone: invalid number")

// Normalize parses raw (local or international notation) and returns E.164.
// defaultRegion is used for numbers without a leading '+'.
func Normalize(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalid
	}

	num, err := phonenumbers.Parse(raw, strings.ToUpper(defaultRegion))
	if err != nil {
		return "", errors.Join(ErrInvalid, err)
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return "", ErrInvalid
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
