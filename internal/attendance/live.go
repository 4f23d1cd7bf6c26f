package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
	"rollcall/internal/clock"
	"rollcall/internal/model"
)

// Live is a session a student opened for attendance-taking.
type Live struct {
	ID       string
	Session  model.Session
	Clock    *clock.Clock
	OpenedAt time.Time
}

// Attempt builds the intake request for this live session.
func (l *Live) Attempt(presented string) Attempt {
	return Attempt{Session: l.Session, Identifier: presented, Clock: l.Clock}
}

// Registry tracks live sessions and runs their clocks. Ended sessions stay
// visible until retention passes after they end.
type Registry struct {
	mu        sync.Mutex
	live      map[string]*Live
	duration  time.Duration
	retention time.Duration
	ctx       context.Context
	now       func() time.Time
}

// NewRegistry runs clocks under ctx; cancelling it stops every countdown.
func NewRegistry(ctx context.Context, duration time.Duration) *Registry {
	if duration <= 0 {
		duration = clock.DefaultDuration
	}
	return &Registry{
		live:      make(map[string]*Live),
		duration:  duration,
		retention: time.Hour,
		ctx:       ctx,
		now:       time.Now,
	}
}

// Open snapshots s and starts its countdown.
func (r *Registry) Open(s model.Session) *Live {
	lv := &Live{
		ID:       uuid.NewString(),
		Session:  s,
		Clock:    clock.New(r.duration),
		OpenedAt: r.now(),
	}
	go lv.Clock.Run(r.ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune()
	r.live[lv.ID] = lv
	return lv
}

// Get returns a live session by id.
func (r *Registry) Get(id string) (*Live, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lv, ok := r.live[id]
	if !ok {
		return nil, apperr.NotFound("live session")
	}
	return lv, nil
}

// Len is the number of tracked sessions, ended ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// prune drops ended sessions opened longer ago than duration plus retention.
func (r *Registry) prune() {
	cutoff := r.now().Add(-(r.duration + r.retention))
	for id, lv := range r.live {
		if lv.Clock.IsEnded() && lv.OpenedAt.Before(cutoff) {
			delete(r.live, id)
		}
	}
}
