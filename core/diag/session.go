package diag

import (
	"context"
	"log/slog"
	"sync"

	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/core/tree"
)

// Session runs checks for a stream of document versions, such as an editor
// reporting changes as the user types. Starting a check cancels any check
// still running for an older version, and results computed for a version
// that has since been superseded are discarded.
type Session struct {
	checker *Checker
	logger  *slog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewSession creates a Session running checker. A nil logger uses slog.Default.
func NewSession(checker *Checker, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{checker: checker, logger: logger}
}

// Check checks doc, superseding any check in progress. It returns
// errors.ErrSuperseded when a newer Check started before this one finished,
// and the context's error when ctx itself is cancelled.
func (s *Session) Check(ctx context.Context, doc *tree.Document) ([]Diagnostic, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.mu.Unlock()

	diags, err := s.checker.Check(ctx, doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Debug("discarding superseded diagnostics",
			"document_version", doc.Version(),
			"generation", gen,
			"current", s.generation)
		return nil, errors.ErrSuperseded
	}
	s.cancel = nil
	return diags, err
}

// Cancel stops the check in progress, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
