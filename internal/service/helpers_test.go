package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
	"github.com/nurpe/rentals/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ContractEvent
}

func (p *recordingPublisher) PublishContractEvent(_ context.Context, event model.ContractEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) targets() []model.ContractStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.ContractStatus, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.To)
	}
	return out
}

func newTestStore(t *testing.T) (*repository.Store, *gorm.DB) {
	t.Helper()
	gdb := testutil.NewDB(t)
	return repository.NewStore(gdb), gdb
}

func at(year int, month time.Month, day int) []Option {
	return []Option{WithClock(testutil.Clock(time.Date(year, month, day, 9, 0, 0, 0, time.UTC)))}
}
