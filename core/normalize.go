package core

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

const countryCallingCode = "254"

const (
	maxAccountReferenceLen    = 12
	maxB2BAccountReferenceLen = 13
	maxTransactionDescLen     = 13
	maxRemarksLen             = 100
	maxOccasionLen            = 100
)

// NormalizePhone converts a loosely formatted local subscriber number into
// the gateway's canonical international form: the last nine digits of the
// input prefixed with the country calling code.
func NormalizePhone(input string) (string, error) {
	var digits strings.Builder
	for _, r := range input {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()
	if len(cleaned) < 9 {
		return "", badInputError(ClientErrorPhoneInvalid,
			fmt.Sprintf("core: phone number %q has fewer than 9 digits", strings.TrimSpace(input)))
	}
	return countryCallingCode + cleaned[len(cleaned)-9:], nil
}

// IdentifierCode maps a symbolic party identifier name to the gateway's
// numeric code. Unknown names are an error; the gateway treats an
// undefined identifier as ambiguous.
func IdentifierCode(name string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "msisdn":
		return 1, nil
	case "till_number":
		return 2, nil
	case "shortcode":
		return 4, nil
	}
	return 0, badInputError(ClientErrorIdentifierUnknown,
		fmt.Sprintf("core: unknown identifier type %q", name))
}

// wholeAmount floors a monetary amount to the nearest whole unit. The
// gateway's currency has no fractional unit on these APIs.
func wholeAmount(amount float64) (int64, error) {
	if amount <= 0 {
		return 0, badInputError(ClientErrorAmountInvalid,
			fmt.Sprintf("core: amount must be greater than zero, got %v", amount))
	}
	return int64(math.Floor(amount)), nil
}

// truncate caps a caller-supplied text field at the gateway's documented
// maximum. Truncation is silent, left-anchored and cuts on rune
// boundaries so multi-byte input never reaches the gateway mangled.
func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}

// SigningTimestamp formats a time the way the gateway expects signed
// timestamps: 4-digit year then 2-digit month, day, hour, minute and
// second with no separators.
func SigningTimestamp(t time.Time) string {
	return t.Format("20060102150405")
}
