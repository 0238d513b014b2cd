package tui

import (
	"context"

	"github.com/dgallion1/docqa/internal/pipeline"
)

// Port is the TUI-facing subset of one orchestrator session.
type Port interface {
	Ask(ctx context.Context, q pipeline.Query) (*pipeline.Result, error)
	Text() string
}

type sessionPort struct {
	orch *pipeline.Orchestrator
	sess *pipeline.Session
}

// ForSession binds a Port to a single session.
func ForSession(orch *pipeline.Orchestrator, sess *pipeline.Session) Port {
	return sessionPort{orch: orch, sess: sess}
}

func (p sessionPort) Ask(ctx context.Context, q pipeline.Query) (*pipeline.Result, error) {
	return p.orch.Ask(ctx, p.sess, q)
}

func (p sessionPort) Text() string {
	return p.sess.Text()
}
