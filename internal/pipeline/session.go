package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// State is a session's position in the question answering lifecycle.
type State string

const (
	StateIdle           State = "idle"
	StateDocumentLoaded State = "document_loaded"
	StateAnswering      State = "answering"
	StateAnswered       State = "answered"
	StateFailed         State = "failed"
)

// Session holds one user's loaded document and last outcome. All fields
// are guarded by mu; read them through Snapshot and Text.
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	state State
	doc   docInfo
	text  string

	result  *Result
	failure *Failure
}

type docInfo struct {
	Filename    string
	Title       string
	ContentHash string
	Pages       int
	Words       int
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		state:     StateIdle,
	}
}

// SessionSnapshot is a read-only, JSON-safe copy of session state.
type SessionSnapshot struct {
	ID          string    `json:"session_id"`
	State       State     `json:"state"`
	Filename    string    `json:"filename,omitempty"`
	Title       string    `json:"title,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	Pages       int       `json:"pages"`
	Words       int       `json:"words"`
	HasText     bool      `json:"has_text"`
	LastResult  *Result   `json:"last_result,omitempty"`
	LastFailure *Failure  `json:"last_failure,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{
		ID:          s.ID,
		State:       s.state,
		Filename:    s.doc.Filename,
		Title:       s.doc.Title,
		ContentHash: s.doc.ContentHash,
		Pages:       s.doc.Pages,
		Words:       s.doc.Words,
		HasText:     s.doc.Words > 0,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.result != nil {
		r := *s.result
		snap.LastResult = &r
	}
	if s.failure != nil {
		f := *s.failure
		snap.LastFailure = &f
	}
	return snap
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Text returns the extracted document text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// setStateLocked moves to state and stamps the update time.
func (s *Session) setStateLocked(state State) {
	s.state = state
	s.UpdatedAt = time.Now()
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
