package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// maxIDLength bounds node and edge identifiers accepted from documents.
const maxIDLength = 512

// ValidateID checks a node or edge identifier.
// IDs must be non-empty, at most 512 bytes, and free of control characters.
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidDocument, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidDocument, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDocument, "%s id %q contains control characters", kind, id)
		}
	}
	return nil
}

// ValidateURL validates an engine endpoint URL.
// It must parse, use http or https, and name a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidConfig, "URL must use http or https scheme")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "invalid URL %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidConfig, "URL %q has no host", rawURL)
	}
	return nil
}
