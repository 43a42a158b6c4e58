// internal/roster/phone.go
package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used for numbers written without a country code.
const DefaultPhoneRegion = "US"

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone returns raw in E.164 form. Blank input returns "".
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidPhone, raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
