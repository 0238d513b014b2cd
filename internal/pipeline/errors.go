package pipeline

import (
	"errors"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/qa"
)

var (
	ErrInvalidInput    = errors.New("document text and question are both required")
	ErrNoRelevantChunk = errors.New("no chunk shares a word with the question")
	ErrBusy            = errors.New("session is already answering a question")
	ErrSessionNotFound = errors.New("session not found")
)

// FailureKind classifies why a question could not be answered.
type FailureKind string

const (
	KindInvalidInput      FailureKind = "invalid_input"
	KindNoRelevantChunk   FailureKind = "no_relevant_chunk"
	KindOracleUnavailable FailureKind = "oracle_unavailable"
	KindInvalidArgument   FailureKind = "invalid_argument"
)

// KindOf maps an error from Ask to its FailureKind, or "" if it is none of
// them.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNoRelevantChunk):
		return KindNoRelevantChunk
	case errors.Is(err, qa.ErrOracleUnavailable):
		return KindOracleUnavailable
	case errors.Is(err, chunker.ErrInvalidChunkSize):
		return KindInvalidArgument
	}
	return ""
}

// Message is the text shown to the user for each failure kind.
func Message(kind FailureKind) string {
	switch kind {
	case KindInvalidInput:
		return "Please provide both a document and a question!"
	case KindNoRelevantChunk:
		return "No relevant text found in the document."
	case KindOracleUnavailable:
		return "The answering model is unavailable right now. Please try again."
	case KindInvalidArgument:
		return "Chunk size is out of range."
	}
	return "Something went wrong."
}

// Failure is the recorded outcome of a failed question.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func newFailure(kind FailureKind) *Failure {
	return &Failure{Kind: kind, Message: Message(kind)}
}
