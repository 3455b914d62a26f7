package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// CreateConfigurationError reports a missing credential. It is raised before
// any upstream call is attempted.
func CreateConfigurationError(credentialName string) *FeedError {
	return NewFeedError(ErrorTypeConfiguration, fmt.Sprintf("Missing %s", credentialName)).
		WithOperation("resolve_feed").
		WithComponent("resolver")
}

// CreateNotFoundError reports a handle that none of the resolution strategies
// could map to a channel id. handle is the "@"-prefixed form.
func CreateNotFoundError(handle string) *FeedError {
	return NewFeedError(ErrorTypeNotFound, MessageChannelNotFound).
		WithHandle(handle).
		WithOperation("resolve_channel").
		WithComponent("resolver")
}

// CreateNetworkError creates a FeedError for transport-level failures talking
// to the upstream API.
func CreateNetworkError(err error, upstreamURL, operation string) *FeedError {
	errorType := ErrorTypeNetwork
	message := "Network error occurred"

	if err != nil {
		if errors.Is(err, context.Canceled) {
			message = "Request canceled"
		} else if isTimeoutError(err) {
			errorType = ErrorTypeTimeout
			message = "Request timed out"
		} else if isDNSError(err) {
			errorType = ErrorTypeDNSResolution
			message = "DNS resolution failed"
		} else if isConnectionError(err) {
			errorType = ErrorTypeConnectionFailed
			message = "Connection failed"
		}
	}

	fe := NewFeedErrorWithCause(errorType, message, err).
		WithURL(upstreamURL).
		WithOperation(operation).
		WithComponent("http_client")
	if err != nil {
		fe.WithNetworkError(err.Error())
	}
	return fe
}

// CreateHTTPError creates a FeedError for a non-2xx upstream answer
func CreateHTTPError(status int, headers http.Header, upstreamURL, operation string) *FeedError {
	var errorType ErrorType
	var message string

	switch {
	case status >= 400 && status < 500:
		errorType = ErrorTypeHTTPClientError
		message = fmt.Sprintf("Client error: %d %s", status, http.StatusText(status))
	case status >= 500:
		errorType = ErrorTypeHTTPServerError
		message = fmt.Sprintf("Server error: %d %s", status, http.StatusText(status))
	default:
		errorType = ErrorTypeHTTP
		message = fmt.Sprintf("HTTP error: %d %s", status, http.StatusText(status))
	}

	return NewFeedError(errorType, message).
		WithURL(upstreamURL).
		WithOperation(operation).
		WithComponent("http_client").
		WithHTTP(status, headers)
}

// CreateQuotaError creates a FeedError for an exhausted upstream quota
func CreateQuotaError(status int, headers http.Header, upstreamURL, operation string, cause error) *FeedError {
	fe := NewFeedErrorWithCause(ErrorTypeQuotaExceeded, "Upstream quota exceeded", cause).
		WithURL(upstreamURL).
		WithOperation(operation).
		WithComponent("http_client").
		WithHTTP(status, headers)
	return fe
}

// CreateParsingError creates a FeedError for an upstream payload that could not
// be decoded
func CreateParsingError(err error, upstreamURL, operation string) *FeedError {
	return NewFeedErrorWithCause(ErrorTypeParsing, "Failed to decode upstream response", err).
		WithURL(upstreamURL).
		WithOperation(operation).
		WithComponent("decoder")
}

// CreateValidationError creates a FeedError for endpoint URL validation issues
func CreateValidationError(err error, rawURL string) *FeedError {
	errorType := ErrorTypeValidation
	message := "URL validation failed"

	switch {
	case errors.Is(err, ErrInvalidURL):
		errorType = ErrorTypeInvalidURL
		message = "Invalid URL format"
	case errors.Is(err, ErrUnsupportedScheme):
		errorType = ErrorTypeUnsupportedScheme
		message = "Unsupported URL scheme"
	case errors.Is(err, ErrMissingHost):
		errorType = ErrorTypeInvalidURL
		message = "URL missing host"
	case errors.Is(err, ErrEmptyURL):
		errorType = ErrorTypeInvalidURL
		message = "URL cannot be empty"
	}

	return NewFeedErrorWithCause(errorType, message, err).
		WithURL(rawURL).
		WithOperation("validate_url").
		WithComponent("url_validator")
}

// CreateCircuitBreakerError creates a FeedError for circuit breaker events
func CreateCircuitBreakerError(name, state string, cause error) *FeedError {
	message := fmt.Sprintf("Circuit breaker %s is %s", name, state)

	return NewFeedErrorWithCause(ErrorTypeCircuitBreaker, message, cause).
		WithOperation(name).
		WithComponent("circuit_breaker")
}

// CreateRateLimitError creates a FeedError for an outbound limiter refusal
func CreateRateLimitError(upstreamURL string, cause error) *FeedError {
	return NewFeedErrorWithCause(ErrorTypeRateLimit, "Outbound request rate limit exceeded", cause).
		WithURL(upstreamURL).
		WithOperation("wait_rate_limit").
		WithComponent("rate_limiter")
}

// AsFeedError returns the first FeedError in err's chain.
func AsFeedError(err error) (*FeedError, bool) {
	var fe *FeedError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// HTTPStatus maps an error onto the status code the HTTP surface answers with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	fe, ok := AsFeedError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if fe.Class() == ClassNotFound {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// isTimeoutError checks if the error is related to timeouts
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	timeoutKeywords := []string{"timeout", "deadline exceeded", "timed out"}
	for _, keyword := range timeoutKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isDNSError checks if the error is related to DNS resolution
func isDNSError(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	dnsKeywords := []string{
		"no such host", "name resolution",
		"name or service not known", "nodename nor servname provided",
	}
	for _, keyword := range dnsKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isConnectionError checks if the error is related to connection issues
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED), errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return true
	}

	errStr := strings.ToLower(err.Error())
	connKeywords := []string{
		"connection refused", "connection reset", "connection aborted",
		"host unreachable", "network unreachable", "no route to host",
	}
	for _, keyword := range connKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}
