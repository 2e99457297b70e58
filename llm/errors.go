package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
)

// ErrorKind classifies a failed completion call.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindTransport      ErrorKind = "transport"
	KindRateLimit      ErrorKind = "rate_limit"
	KindProvider       ErrorKind = "provider"
	KindEmptyResponse  ErrorKind = "empty_response"
)

var (
	// ErrCredentialMissing is returned before any network traffic when no
	// API key has been configured.
	ErrCredentialMissing = errors.New("api key not configured")
	// ErrEmptyResponse marks a successful call that carried no content.
	ErrEmptyResponse = errors.New("model returned no content")
)

// CompletionError is the only error type Complete returns.
type CompletionError struct {
	Kind       ErrorKind
	Caller     string
	Model      string
	StatusCode int
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error from %s (%s, status %d): %v", e.Kind, e.Caller, e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s error from %s (%s): %v", e.Kind, e.Caller, e.Model, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// KindOf returns the kind of the first CompletionError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// classify maps SDK and transport failures onto the error taxonomy.
func classify(err error, caller, model string) *CompletionError {
	out := &CompletionError{Caller: caller, Model: model, Err: err}
	var apiErr *openai.Error
	switch {
	case errors.Is(err, ErrCredentialMissing):
		out.Kind = KindAuthentication
	case errors.As(err, &apiErr):
		out.StatusCode = apiErr.StatusCode
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			out.Kind = KindAuthentication
		case http.StatusTooManyRequests:
			out.Kind = KindRateLimit
		default:
			out.Kind = KindProvider
		}
	case errors.Is(err, ErrEmptyResponse):
		out.Kind = KindEmptyResponse
	default:
		out.Kind = KindTransport
	}
	return out
}

// Hint turns common failure patterns into an operator-facing suggestion.
// Detection is substring based because providers phrase these differently.
// It returns "" when nothing useful can be said.
func Hint(err error, model string) string {
	if err == nil {
		return ""
	}
	text := strings.ToLower(err.Error())
	kind, _ := KindOf(err)
	switch {
	case errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(text, "timeout") ||
		strings.Contains(text, "timed out") ||
		strings.Contains(text, "deadline exceeded"):
		return fmt.Sprintf("The model %s timed out. Consider using a faster model.", model)
	case kind == KindRateLimit || strings.Contains(text, "rate limit") || strings.Contains(text, "rate_limit"):
		return "Rate limit hit. Please wait and try again."
	case strings.Contains(text, "credit") || strings.Contains(text, "balance") || strings.Contains(text, "status 402"):
		return "Insufficient credits on OpenRouter. Please add funds."
	case errors.Is(err, ErrCredentialMissing):
		return "Set OPENROUTER_API_KEY or pass --api-key."
	}
	return ""
}
