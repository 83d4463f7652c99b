package core

import (
	"fmt"
	"net/url"
	"strings"
)

// The gateway rejects callbacks that point back at itself. The checks are
// case-sensitive literals against the gateway's own name, wherever it
// appears in the URL, not just as the registered domain.
var forbiddenCallbackKeywords = []string{"safaricom"}

// ValidateCallbackURL checks that a configured callback, result or timeout
// URL is an absolute http(s) URL and does not reference the gateway's own
// domain.
func ValidateCallbackURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return badInputError(ClientErrorCallbackURLInvalid, "core: callback url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return badInputError(ClientErrorCallbackURLInvalid,
			fmt.Sprintf("core: callback url %q is not a valid http(s) url", trimmed))
	}
	for _, keyword := range forbiddenCallbackKeywords {
		if strings.Contains(trimmed, keyword) {
			return badInputError(ClientErrorCallbackURLInvalid,
				fmt.Sprintf("core: callback url %q references the gateway domain", trimmed))
		}
	}
	return nil
}
