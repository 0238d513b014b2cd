// Package qa wraps extractive question-answering oracles behind one
// contract: given a question and a context string, return the answer span
// and a confidence in [0,1].
package qa

import (
	"context"
	"errors"
	"fmt"
)

// ErrOracleUnavailable wraps every failure to obtain an answer from the
// oracle: load failures, timeouts, transport and decoding errors.
var ErrOracleUnavailable = errors.New("qa oracle unavailable")

// Answer is the oracle's best-guess span and its confidence.
type Answer struct {
	Text  string  `json:"answer"`
	Score float64 `json:"score"`
}

// Oracle answers a question from a single context string. Implementations
// must be safe for concurrent use.
type Oracle interface {
	Answer(ctx context.Context, question, passage string) (Answer, error)
}

// closer is implemented by oracles that hold connections.
type closer interface {
	Close()
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable reports whether err carries a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
