package model

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// URL validation errors
var (
	ErrInvalidURL        = errors.New("invalid URL format")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme - only HTTP and HTTPS are allowed")
	ErrMissingHost       = errors.New("URL must have a valid host")
	ErrEmptyURL          = errors.New("URL cannot be empty")
)

// ValidateEndpointURL checks an operator-supplied upstream base URL. Private
// and loopback hosts are allowed so the service can sit behind a local proxy.
func ValidateEndpointURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrEmptyURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if err := validateScheme(u.Scheme); err != nil {
		return err
	}

	if u.Host == "" {
		return ErrMissingHost
	}

	return nil
}

// validateScheme ensures only HTTP and HTTPS schemes are allowed.
func validateScheme(scheme string) error {
	scheme = strings.ToLower(scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsupportedScheme
	}
	return nil
}

// ValidateEndpoints validates a set of named endpoints and reports every
// invalid one in a single FeedError.
func ValidateEndpoints(endpoints map[string]string) error {
	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	var invalid []string
	var first error
	var firstURL string
	for _, name := range names {
		if err := ValidateEndpointURL(endpoints[name]); err != nil {
			if first == nil {
				first, firstURL = err, endpoints[name]
			}
			invalid = append(invalid, fmt.Sprintf("%s=%q: %v", name, endpoints[name], err))
		}
	}

	if first == nil {
		return nil
	}
	fe := CreateValidationError(first, firstURL)
	fe.Message = fmt.Sprintf("invalid endpoints: %s", strings.Join(invalid, "; "))
	return fe
}

// NormalizeBaseURL returns rawURL with exactly one trailing slash, the form the
// API client resolves relative method paths against.
func NormalizeBaseURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/") + "/"
}
