package validator

import (
	"fmt"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidateURL checks if a URL is valid
func ValidateURL(urlStr string) error {
	// Trim whitespace
	urlStr = strings.TrimSpace(urlStr)

	if urlStr == "" {
		return ErrEmptyURL
	}

	// Parse URL
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return ErrInvalidURL
	}

	// Check scheme
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return ErrInvalidScheme
	}

	// Check host
	if parsedURL.Host == "" {
		return ErrInvalidHost
	}

	return nil
}

// ValidateIP checks that a client address is a literal IPv4 or IPv6 address
// An empty string is valid and means "unknown"
func ValidateIP(ip string) error {
	if ip == "" {
		return nil
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil || addr.Zone() != "" {
		return fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}
	return nil
}

// Truncate cuts s to at most max characters (runes, not bytes)
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// CleanText makes free text storable in a PostgreSQL TEXT column: invalid
// UTF-8 sequences become U+FFFD and NUL bytes are dropped
func CleanText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.ReplaceAll(s, "\x00", "")
}

// Layouts accepted for date query parameters, tried in order
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses a date or ISO 8601 timestamp
// Values without a zone are read as UTC
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParsePositiveInt parses a strictly positive integer
func ParsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotPositiveInt, s)
	}
	return n, nil
}
