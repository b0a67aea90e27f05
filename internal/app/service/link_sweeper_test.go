package service

import (
	"context"
	"testing"
	"time"

	"github.com/sifan077/graby/internal/app/model"
	"github.com/sifan077/graby/internal/app/repository"
)

func TestLinkSweeper_Sweep(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	links := NewLinkService(repo, LinkOptions{Policy: TTLPolicy(time.Hour)})
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	_ = repo.Create(ctx, &model.Link{ID: "old", OwnerUserID: "u1", ExpiresAt: &past})
	if _, err := links.CreateLink(ctx, CreateLinkInput{ID: "live", OriginalURL: "https://example.com", OwnerUserID: "u1"}); err != nil {
		t.Fatalf("CreateLink error: %v", err)
	}

	sweeper := NewLinkSweeper(nil, links, nil, time.Minute)
	if n := sweeper.Sweep(ctx); n != 1 {
		t.Fatalf("expected 1 deleted link, got %d", n)
	}
	if _, err := links.Resolve(ctx, "live"); err != nil {
		t.Fatalf("expected live link to remain, got %v", err)
	}
}

func TestLinkSweeper_StartStop(t *testing.T) {
	sweeper := NewLinkSweeper(nil, NewLinkService(repository.NewMemoryLinkRepository(), LinkOptions{}), nil, 10*time.Millisecond)
	sweeper.Start()
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()
}
