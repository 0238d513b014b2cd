package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/metrics"
	"github.com/dgallion1/docqa/internal/parser"
	"github.com/dgallion1/docqa/internal/qa"
	"github.com/dgallion1/docqa/internal/relevance"
)

// Answerer is the oracle contract the orchestrator depends on.
type Answerer interface {
	Answer(ctx context.Context, question, passage string) (qa.Answer, error)
}

// Options configures an Orchestrator.
type Options struct {
	SessionTTL    time.Duration
	ChunkCacheTTL time.Duration
	Sizes         chunker.SizeRange
	Parser        parser.Options
	Logger        *zap.Logger
}

// OptionsFromConfig maps service configuration onto Options.
func OptionsFromConfig(cfg config.Config, log *zap.Logger) Options {
	return Options{
		SessionTTL:    cfg.SessionTTL,
		ChunkCacheTTL: cfg.ChunkCacheTTL,
		Sizes:         cfg.ChunkRange(),
		Parser:        parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		Logger:        log,
	}
}

// Query is one question against a session's loaded document.
type Query struct {
	Question       string
	ChunkSize      int // 0 uses the configured default
	ShowConfidence bool
}

// Result is the outcome of a successful question.
type Result struct {
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Score      float64 `json:"score"`
	Confidence string  `json:"confidence,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	ChunkText  string  `json:"chunk_text"`
	Overlap    int     `json:"overlap"`
	ChunkCount int     `json:"chunk_count"`
	ChunkSize  int     `json:"chunk_size"`
}

// FormatConfidence renders a score the way it is displayed to users.
func FormatConfidence(score float64) string {
	return fmt.Sprintf("%.3f", score)
}

// Orchestrator drives sessions through upload, segmentation, selection and
// answering.
type Orchestrator struct {
	sessions *Store
	chunks   *chunker.Cache
	oracle   Answerer
	sizes    chunker.SizeRange
	parse    parser.Options
	log      *zap.Logger
}

// NewOrchestrator creates an orchestrator around an already constructed
// oracle, which it uses for its whole lifetime.
func NewOrchestrator(oracle Answerer, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sizes == (chunker.SizeRange{}) {
		opts.Sizes = chunker.DefaultSizeRange()
	}
	return &Orchestrator{
		sessions: NewStore(opts.SessionTTL),
		chunks:   chunker.NewCache(opts.ChunkCacheTTL),
		oracle:   oracle,
		sizes:    opts.Sizes,
		parse:    opts.Parser,
		log:      opts.Logger,
	}
}

// Sizes returns the accepted chunk size range.
func (o *Orchestrator) Sizes() chunker.SizeRange { return o.sizes }

// NewSession creates an idle session.
func (o *Orchestrator) NewSession() *Session {
	s := o.sessions.Create()
	o.log.Info("session created", zap.String("session_id", s.ID))
	return s
}

// Session looks up a live session.
func (o *Orchestrator) Session(id string) (*Session, error) {
	s, ok := o.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// DeleteSession discards a session and its document.
func (o *Orchestrator) DeleteSession(id string) error {
	if !o.sessions.Delete(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	o.log.Info("session deleted", zap.String("session_id", id))
	return nil
}

// Load extracts text from an uploaded file and makes it the session's
// document, discarding any prior text and outcome. A file that yields no
// text leaves the session idle; that only becomes an error when a question
// is asked. Extraction failures leave the session untouched.
func (o *Orchestrator) Load(ctx context.Context, s *Session, filename string, r io.Reader) (SessionSnapshot, error) {
	if s.State() == StateAnswering {
		return s.Snapshot(), ErrBusy
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("read upload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return s.Snapshot(), err
	}

	doc, err := parser.Extract(bytes.NewReader(data), filename, o.parse)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("extract %s: %w", filename, err)
	}
	text := doc.Text()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAnswering {
		return s.snapshotLocked(), ErrBusy
	}

	s.doc = docInfo{
		Filename:    filename,
		Title:       doc.Title,
		ContentHash: ContentHashHex(data),
		Pages:       len(doc.Pages),
		Words:       doc.WordCount(),
	}
	s.text = text
	s.result = nil
	s.failure = nil
	if strings.TrimSpace(text) == "" {
		s.setStateLocked(StateIdle)
	} else {
		s.setStateLocked(StateDocumentLoaded)
	}

	o.log.Info("document loaded",
		zap.String("session_id", s.ID),
		zap.String("state", string(s.state)),
		zap.String("filename", filename),
		zap.Int("pages", s.doc.Pages),
		zap.Int("words", s.doc.Words),
	)
	return s.snapshotLocked(), nil
}

// Ask answers one question against the session's document. On failure the
// session is left in StateFailed with the failure recorded.
func (o *Orchestrator) Ask(ctx context.Context, s *Session, q Query) (*Result, error) {
	size := o.sizes.Resolve(q.ChunkSize)
	if err := o.sizes.Check(size); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.state == StateAnswering {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	text := s.text
	if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(text) == "" {
		o.failLocked(s, KindInvalidInput)
		s.mu.Unlock()
		return nil, ErrInvalidInput
	}
	s.setStateLocked(StateAnswering)
	s.result = nil
	s.failure = nil
	s.mu.Unlock()

	res, err := o.safeAnswer(ctx, text, size, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		o.failLocked(s, KindOf(err))
		return nil, err
	}
	s.result = res
	s.setStateLocked(StateAnswered)
	metrics.AnswersTotal.WithLabelValues("answered").Inc()
	o.log.Info("question answered",
		zap.String("session_id", s.ID),
		zap.String("state", string(s.state)),
		zap.Int("chunk_index", res.ChunkIndex),
		zap.Int("overlap", res.Overlap),
		zap.Float64("score", res.Score),
	)
	r := *res
	return &r, nil
}

// safeAnswer turns a panic below answer into an oracle failure so the
// session always leaves Answering.
func (o *Orchestrator) safeAnswer(ctx context.Context, text string, size int, q Query) (res *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			o.log.Error("answer panicked", zap.Any("panic", p))
			res, err = nil, fmt.Errorf("%w: panic: %v", qa.ErrOracleUnavailable, p)
		}
	}()
	return o.answer(ctx, text, size, q)
}

func (o *Orchestrator) answer(ctx context.Context, text string, size int, q Query) (*Result, error) {
	chunks, err := o.chunks.Split(text, size)
	if err != nil {
		return nil, err
	}

	match, ok := relevance.Select(q.Question, chunks)
	if !ok {
		return nil, ErrNoRelevantChunk
	}

	ans, err := o.oracle.Answer(ctx, q.Question, match.Chunk.Text)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Question:   q.Question,
		Answer:     ans.Text,
		Score:      ans.Score,
		ChunkIndex: match.Chunk.Index,
		ChunkText:  match.Chunk.Text,
		Overlap:    match.Score,
		ChunkCount: len(chunks),
		ChunkSize:  size,
	}
	if q.ShowConfidence {
		res.Confidence = FormatConfidence(ans.Score)
	}
	return res, nil
}

func (o *Orchestrator) failLocked(s *Session, kind FailureKind) {
	if kind == "" {
		kind = KindOracleUnavailable
	}
	s.failure = newFailure(kind)
	s.result = nil
	s.setStateLocked(StateFailed)
	metrics.AnswersTotal.WithLabelValues(string(kind)).Inc()
	o.log.Info("question failed",
		zap.String("session_id", s.ID),
		zap.String("state", string(s.state)),
		zap.String("kind", string(kind)),
	)
}
