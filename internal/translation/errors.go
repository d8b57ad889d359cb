package translation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a translation attempt failed
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindConfiguration means the provider was never called, usually a missing API key
	KindConfiguration
	// KindHTTP is a non-200 response from the provider
	KindHTTP
	// KindEmptyResult is a 200 response without usable translated text
	KindEmptyResult
	// KindInput is rejected input, caught before any network call
	KindInput
	// KindTransport covers network errors, timeouts and open circuit breakers
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindHTTP:
		return "provider_http"
	case KindEmptyResult:
		return "provider_empty_result"
	case KindInput:
		return "input"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is the structured error returned by providers and the dispatcher
type Error struct {
	Kind     ErrorKind
	Provider string
	Status   int    // HTTP status for KindHTTP
	Body     string // response body (or API message) for KindHTTP
	Message  string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}

	switch e.Kind {
	case KindHTTP:
		fmt.Fprintf(&b, "API error (status %d)", e.Status)
		if body := strings.TrimSpace(e.Body); body != "" {
			b.WriteString(": ")
			b.WriteString(truncate(body, 300))
		}
		return b.String()
	case KindTransport:
		b.WriteString("request failed")
		if e.Err != nil {
			b.WriteString(": ")
			b.WriteString(e.Err.Error())
		}
	default:
		b.WriteString(e.Message)
		if e.Err != nil {
			if e.Message != "" {
				b.WriteString(": ")
			}
			b.WriteString(e.Err.Error())
		}
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or KindUnknown for foreign errors
func KindOf(err error) ErrorKind {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Kind
	}
	return KindUnknown
}

func configError(provider, message string) *Error {
	return &Error{Kind: KindConfiguration, Provider: provider, Message: message}
}

func missingKeyError(provider string) *Error {
	return configError(provider, "API key not configured")
}

func httpError(provider string, status int, body string) *Error {
	return &Error{Kind: KindHTTP, Provider: provider, Status: status, Body: body}
}

func emptyResultError(provider string) *Error {
	return &Error{Kind: KindEmptyResult, Provider: provider, Message: "empty translation returned"}
}

func inputError(message string) *Error {
	return &Error{Kind: KindInput, Message: message}
}

func transportError(provider string, err error) *Error {
	return &Error{Kind: KindTransport, Provider: provider, Err: err}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
