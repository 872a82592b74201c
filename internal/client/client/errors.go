package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrClient       = errors.New("request rejected")

	// ErrNotSupported is returned for endpoints the current role does not have.
	ErrNotSupported = errors.New("not available for this role")

	// ErrInvalidResponse is returned when a 2xx body lacks what the endpoint
	// promises.
	ErrInvalidResponse = errors.New("invalid response from server")
)

// Kind classifies a failed request.
type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindNetwork
	KindServer
	KindClient
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnauthorized:
		return ErrUnauthorized
	case KindNetwork:
		return ErrNetwork
	case KindServer:
		return ErrServer
	default:
		return ErrClient
	}
}

// APIError is a failed backend call. Status is zero for network failures.
type APIError struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	switch {
	case e.Detail != "":
		b.WriteString(": ")
		b.WriteString(e.Detail)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// Message is what the front end shows for this error: the server's detail
// when there is one, otherwise fallback.
func (e *APIError) Message(fallback string) string {
	if e.Detail != "" {
		return e.Detail
	}
	return fallback
}

// kindForStatus maps a non-2xx status to its Kind.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Err: err}
}

// errorBody covers both shapes the backend uses:
//
//	{"detail": "Invalid credentials"}
//	{"detail": [{"loc": ["body", "email"], "msg": "field required"}]}
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Msg string `json:"msg"`
}

// parseDetail extracts the human-readable message from an error body. When
// the body is not JSON, a short plain-text body is used as is.
func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		text := strings.TrimSpace(string(body))
		if len(text) > 0 && len(text) <= 200 && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "<") {
			return text
		}
		return ""
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}

	var items []validationItem
	if err := json.Unmarshal(eb.Detail, &items); err == nil {
		for _, it := range items {
			if it.Msg != "" {
				return it.Msg
			}
		}
	}
	return ""
}
