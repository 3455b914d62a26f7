// Package model defines the request, response and error types shared by the
// channel feed resolver, its upstream clients and its transports.
package model

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrorType represents different categories of errors that can occur
type ErrorType string

const (
	// ErrorTypeNetwork represents general network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout represents request timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeConnectionFailed represents connection establishment failures
	ErrorTypeConnectionFailed ErrorType = "connection_failed"
	// ErrorTypeDNSResolution represents DNS resolution failures
	ErrorTypeDNSResolution ErrorType = "dns_resolution"

	// ErrorTypeHTTP represents general HTTP errors
	ErrorTypeHTTP ErrorType = "http"
	// ErrorTypeHTTPClientError represents HTTP 4xx answers from the upstream API
	ErrorTypeHTTPClientError ErrorType = "http_client_error" // 4xx
	// ErrorTypeHTTPServerError represents HTTP 5xx answers from the upstream API
	ErrorTypeHTTPServerError ErrorType = "http_server_error" // 5xx
	// ErrorTypeQuotaExceeded represents an exhausted upstream API quota
	ErrorTypeQuotaExceeded ErrorType = "quota_exceeded"

	// ErrorTypeParsing represents undecodable upstream responses
	ErrorTypeParsing ErrorType = "parsing"

	// ErrorTypeValidation represents endpoint URL validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeInvalidURL represents invalid URL format errors
	ErrorTypeInvalidURL ErrorType = "invalid_url"
	// ErrorTypeUnsupportedScheme represents unsupported URL scheme errors
	ErrorTypeUnsupportedScheme ErrorType = "unsupported_scheme"

	// ErrorTypeConfiguration represents missing or invalid service configuration
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeTransport represents transport configuration errors
	ErrorTypeTransport ErrorType = "transport"

	// ErrorTypeNotFound represents a handle that no resolution strategy could map
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeCircuitBreaker represents circuit breaker state errors
	ErrorTypeCircuitBreaker ErrorType = "circuit_breaker"
	// ErrorTypeRateLimit represents outbound rate limiter errors
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeInternal represents internal server errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeUnknown represents unknown or unclassified errors
	ErrorTypeUnknown ErrorType = "unknown"
)

// ErrorClass is the coarse outcome a caller acts on.
type ErrorClass string

const (
	ClassConfiguration ErrorClass = "configuration"
	ClassNotFound      ErrorClass = "not_found"
	ClassUpstream      ErrorClass = "upstream"
)

// Messages surfaced to HTTP and MCP callers.
const (
	MessageChannelNotFound = "Channel not found"
	MessageFetchFailed     = "Failed to fetch videos"
)

// FeedError represents a structured error with additional context for debugging
type FeedError struct {
	// Core error information
	ID         string    `json:"id"`         // Unique correlation ID for tracking
	Timestamp  time.Time `json:"timestamp"`  // When the error occurred
	ErrorType  ErrorType `json:"error_type"` // Category of error
	Message    string    `json:"message"`    // Human-readable error message
	Suggestion string    `json:"suggestion"` // Actionable suggestion for resolution

	// Context information
	Handle    string `json:"handle,omitempty"`    // Normalized "@"-prefixed handle being resolved
	URL       string `json:"url,omitempty"`       // Upstream URL that caused the error
	Operation string `json:"operation,omitempty"` // What operation was being performed
	Component string `json:"component,omitempty"` // Which component generated the error

	// HTTP-specific context
	HTTPStatus  int               `json:"http_status,omitempty"`  // Upstream HTTP status code
	HTTPHeaders map[string]string `json:"http_headers,omitempty"` // Relevant upstream HTTP headers

	// Network-specific context
	NetworkError string `json:"network_error,omitempty"`

	// Original error for wrapping
	Cause error `json:"-"`
}

// Error implements the error interface
func (fe *FeedError) Error() string {
	var parts []string

	if fe.Message != "" {
		parts = append(parts, fe.Message)
	}

	if fe.Handle != "" {
		parts = append(parts, fmt.Sprintf("Handle: %s", fe.Handle))
	}

	if fe.URL != "" {
		parts = append(parts, fmt.Sprintf("URL: %s", fe.URL))
	}

	if fe.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation: %s", fe.Operation))
	}

	if fe.HTTPStatus != 0 {
		parts = append(parts, fmt.Sprintf("HTTP Status: %d", fe.HTTPStatus))
	}

	parts = append(parts, fmt.Sprintf("Type: %s", fe.ErrorType), fmt.Sprintf("ID: %s", fe.ID))

	return strings.Join(parts, " | ")
}

// Unwrap returns the underlying cause for error wrapping support
func (fe *FeedError) Unwrap() error {
	return fe.Cause
}

// Class collapses the fine-grained error type into the three outcomes the
// transports distinguish.
func (fe *FeedError) Class() ErrorClass {
	switch fe.ErrorType {
	case ErrorTypeConfiguration, ErrorTypeTransport, ErrorTypeValidation,
		ErrorTypeInvalidURL, ErrorTypeUnsupportedScheme:
		return ClassConfiguration
	case ErrorTypeNotFound:
		return ClassNotFound
	default:
		return ClassUpstream
	}
}

// PublicMessage is the message safe to show to an HTTP or MCP caller.
// Upstream details stay in the logs.
func (fe *FeedError) PublicMessage() string {
	switch fe.Class() {
	case ClassNotFound:
		return MessageChannelNotFound
	case ClassConfiguration:
		return fe.Message
	default:
		return MessageFetchFailed
	}
}

// NewFeedError creates a new FeedError with basic information
func NewFeedError(errorType ErrorType, message string) *FeedError {
	id, _ := gonanoid.New() // Generate unique correlation ID

	return &FeedError{
		ID:         id,
		Timestamp:  time.Now().UTC(),
		ErrorType:  errorType,
		Message:    message,
		Suggestion: getSuggestionForErrorType(errorType),
	}
}

// NewFeedErrorWithCause creates a new FeedError wrapping an existing error
func NewFeedErrorWithCause(errorType ErrorType, message string, cause error) *FeedError {
	fe := NewFeedError(errorType, message)
	fe.Cause = cause
	return fe
}

// WithHandle adds the handle under resolution to the error
func (fe *FeedError) WithHandle(handle string) *FeedError {
	fe.Handle = handle
	return fe
}

// WithURL adds URL context to the error
func (fe *FeedError) WithURL(url string) *FeedError {
	fe.URL = url
	return fe
}

// WithOperation adds operation context to the error
func (fe *FeedError) WithOperation(operation string) *FeedError {
	fe.Operation = operation
	return fe
}

// WithComponent adds component context to the error
func (fe *FeedError) WithComponent(component string) *FeedError {
	fe.Component = component
	return fe
}

// WithHTTP adds HTTP-specific context to the error
func (fe *FeedError) WithHTTP(status int, headers http.Header) *FeedError {
	fe.HTTPStatus = status

	if headers != nil {
		fe.HTTPHeaders = make(map[string]string)

		relevantHeaders := []string{
			"Content-Type", "Content-Length", "Server", "Cache-Control",
			"Retry-After", "X-Goog-Request-Id",
		}

		for _, header := range relevantHeaders {
			if value := headers.Get(header); value != "" {
				fe.HTTPHeaders[header] = value
			}
		}
	}

	return fe
}

// WithNetworkError adds network-specific context
func (fe *FeedError) WithNetworkError(networkErr string) *FeedError {
	fe.NetworkError = networkErr
	return fe
}

// getSuggestionForErrorType returns actionable suggestions based on error type
func getSuggestionForErrorType(errorType ErrorType) string {
	suggestions := map[ErrorType]string{
		ErrorTypeTimeout:           "Check network connectivity or increase --upstream-timeout",
		ErrorTypeConnectionFailed:  "Verify the YouTube API endpoint is reachable",
		ErrorTypeDNSResolution:     "Check DNS settings and verify the endpoint host name",
		ErrorTypeHTTPClientError:   "Verify the API key is valid and the YouTube Data API is enabled for it",
		ErrorTypeHTTPServerError:   "The YouTube API is experiencing issues, try again later",
		ErrorTypeQuotaExceeded:     "The daily YouTube API quota is exhausted, wait for the reset or raise the quota",
		ErrorTypeParsing:           "The upstream returned an unexpected payload, check the endpoint configuration",
		ErrorTypeInvalidURL:        "Check the URL format and ensure it's a valid HTTP/HTTPS URL",
		ErrorTypeUnsupportedScheme: "Only HTTP and HTTPS URLs are supported",
		ErrorTypeNotFound:          "Check the handle spelling or pass an explicit channelId",
		ErrorTypeCircuitBreaker:    "Upstream is temporarily skipped after repeated failures",
		ErrorTypeRateLimit:         "Outbound request budget exhausted, lower traffic or raise --upstream-rps",
		ErrorTypeTransport:         "Check transport configuration (http, stdio)",
		ErrorTypeConfiguration:     "Set YOUTUBE_API_KEY or pass --api-key",
		ErrorTypeInternal:          "Internal server error occurred, check logs for details",
	}

	if suggestion, exists := suggestions[errorType]; exists {
		return suggestion
	}

	return "Check the error details and try again"
}
