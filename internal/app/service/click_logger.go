package service

import (
	"context"

	"github.com/sifan077/graby/internal/app/model"
	"github.com/sifan077/graby/internal/app/repository"
)

// ClickLogger records visits. Implementations may be asynchronous; a nil
// error only means the log was accepted.
type ClickLogger interface {
	Log(ctx context.Context, log *model.ClickLog) error
}

// DirectClickLogger writes click logs straight to the repository.
type DirectClickLogger struct {
	repo repository.ClickLogRepository
}

// NewDirectClickLogger returns a synchronous ClickLogger.
func NewDirectClickLogger(repo repository.ClickLogRepository) *DirectClickLogger {
	return &DirectClickLogger{repo: repo}
}

// Log stores the click log before returning.
func (l *DirectClickLogger) Log(ctx context.Context, log *model.ClickLog) error {
	return l.repo.Create(ctx, log)
}
