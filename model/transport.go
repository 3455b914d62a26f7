package model

import (
	"errors"
	"strings"
)

var ErrInvalidTransport = errors.New("invalid transport")

// Transport selects how the service is exposed.
type Transport uint8

const (
	UndefinedTransport Transport = iota
	// HTTPTransport serves the JSON endpoint, and /mcp when enabled.
	HTTPTransport
	// StdioTransport serves only the MCP tool over stdin/stdout.
	StdioTransport
)

// TransportNames lists the accepted names, in the order used by CLI help.
var TransportNames = []string{"http", "stdio"}

// ParseTransport converts a string to a Transport type
func ParseTransport(transport string) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(transport)) {
	case "http":
		return HTTPTransport, nil
	case "stdio":
		return StdioTransport, nil
	default:
		return UndefinedTransport, ErrInvalidTransport
	}
}

// String returns the string representation of a Transport
func (t Transport) String() string {
	switch t {
	case HTTPTransport:
		return "http"
	case StdioTransport:
		return "stdio"
	default:
		return "undefined"
	}
}
