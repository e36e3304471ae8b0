// Package memory is an in-process PlayerRepository used by tests and by
// local runs that pass no database DSN.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rewindlabs/rewind/internal/domain"
)

// PlayerRepo implements domain.PlayerRepository in memory
type PlayerRepo struct {
	mu      sync.RWMutex
	players map[string]*domain.Player
}

// NewPlayerRepo creates an empty in-memory player repository
func NewPlayerRepo() *PlayerRepo {
	return &PlayerRepo{players: make(map[string]*domain.Player)}
}

func (r *PlayerRepo) Upsert(ctx context.Context, player *domain.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := clone(player)
	cp.UpdatedAt = time.Now()
	r.players[player.PUUID] = cp
	return nil
}

func (r *PlayerRepo) GetByPUUID(ctx context.Context, puuid string) (*domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[puuid]
	if !ok {
		return nil, nil
	}
	return clone(p), nil
}

func (r *PlayerRepo) List(ctx context.Context, params domain.PlayerListParams) ([]*domain.Player, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*domain.Player
	for _, p := range r.players {
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		all = append(all, clone(p))
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].QueuedAt.After(all[j].QueuedAt)
	})

	total := len(all)
	if params.Offset > 0 {
		if params.Offset >= len(all) {
			return nil, total, nil
		}
		all = all[params.Offset:]
	}
	if params.Limit > 0 && params.Limit < len(all) {
		all = all[:params.Limit]
	}

	return all, total, nil
}

func (r *PlayerRepo) UpdateStatus(ctx context.Context, puuid string, status domain.PlayerStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[puuid]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

func (r *PlayerRepo) SetProcessedCount(ctx context.Context, puuid string, processed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[puuid]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.ProcessedCount = processed
	p.UpdatedAt = time.Now()
	return nil
}

func (r *PlayerRepo) MarkComplete(ctx context.Context, puuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[puuid]
	if !ok {
		return domain.ErrPlayerNotFound
	}

	now := time.Now()
	p.Status = domain.PlayerStatusComplete
	p.CompletedAt = &now
	p.UpdatedAt = now
	return nil
}

func (r *PlayerRepo) GetStats(ctx context.Context) (*domain.PlayerStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.PlayerStats{}
	for _, p := range r.players {
		stats.Total++
		switch p.Status {
		case domain.PlayerStatusQueued:
			stats.Queued++
		case domain.PlayerStatusProcessing:
			stats.Processing++
		case domain.PlayerStatusComplete:
			stats.Complete++
		}
	}
	return stats, nil
}

func clone(p *domain.Player) *domain.Player {
	cp := *p
	cp.MatchIDs = append([]string(nil), p.MatchIDs...)
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
