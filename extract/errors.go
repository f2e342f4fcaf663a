package extract

import (
	"errors"
	"fmt"

	sf "github.com/reoring/schemaforge"
)

// ErrRateLimited matches every *RateLimitedError under errors.Is.
var ErrRateLimited = errors.New("rate limited")

// ValidationFailure reports a completion that did not satisfy the target.
// It is retryable.
type ValidationFailure struct {
	Issues sf.Issues
}

func (e *ValidationFailure) Error() string {
	return "reply does not match the target: " + e.Issues.Error()
}

func (e *ValidationFailure) Unwrap() error { return e.Issues }

// RateLimitedError reports provider throttling. It is retryable.
type RateLimitedError struct {
	Message string
	Cause   error
}

func (e *RateLimitedError) Error() string {
	if e.Message == "" {
		return ErrRateLimited.Error()
	}
	return "rate limited: " + e.Message
}

func (e *RateLimitedError) Unwrap() error { return e.Cause }

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// ProviderError is any other provider-side failure. It aborts extraction on
// first occurrence.
type ProviderError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// InputError rejects request parameters before any attempt is made.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string { return fmt.Sprintf("invalid %s: %s", e.Field, e.Message) }

// Issue renders the error in the shared issue model.
func (e *InputError) Issue() sf.Issue {
	return sf.Issue{Path: sf.Root().Field(e.Field).Pointer(), Code: sf.CodeInvalidFormat, Message: e.Message}
}

// RetriesExhaustedError is returned when every attempt failed in a retryable
// way. It carries what was accumulated across the attempts.
type RetriesExhaustedError struct {
	// Cause is the deepest error under the last failure.
	Cause error
	// LastCompletion is the most recent provider reply, nil when no attempt
	// got one (for example when every attempt was rate limited).
	LastCompletion *Completion
	Attempts       int
	// Messages is the caller's original conversation.
	Messages   []Message
	TotalUsage Usage
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("extraction failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Cause }

func retryable(err error) bool {
	var vf *ValidationFailure
	return errors.As(err, &vf) || errors.Is(err, ErrRateLimited)
}

// rootCause follows the Unwrap chain to its end.
func rootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return err
}
