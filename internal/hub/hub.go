// Package hub drives sensor entities and publishes their states.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// historyLimit number of published state records kept in memory for
// streaming readers.
const historyLimit = 4096

// Entity read-only sensor contract the hub drives.
type Entity interface {
	Name() string
	State() string
	Unit() string
	Attributes() map[string]any
	Update(ctx context.Context)
}

// EntityState published state of one entity after an update pass. Uses
// string fields to avoid float precision issues when consumed by web/UI
// layers.
type EntityState struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	State      string         `json:"state"`
	Unit       string         `json:"unit,omitempty"`
	Attributes map[string]any `json:"attributes"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// EntityStateRecord bundles a published state with its sequence index.
type EntityStateRecord struct {
	Index uint64      `json:"index"`
	State EntityState `json:"state"`
}

type registered struct {
	id     string
	entity Entity
}

// Hub updates registered entities serially on a fixed cadence and keeps
// the published states for concurrent readers. Entities themselves are
// only ever touched from the update loop.
type Hub struct {
	interval time.Duration
	logger   *zap.Logger

	mu       sync.RWMutex
	entities []registered
	index    uint64
	history  []EntityStateRecord
	latest   map[string]EntityState
	hooks    []func([]EntityState)
}

// New creates a hub updating its entities every interval.
func New(interval time.Duration, logger *zap.Logger) *Hub {
	return &Hub{
		interval: interval,
		logger:   logger,
		latest:   make(map[string]EntityState),
	}
}

// Add registers entities and assigns each a stable registration id.
func (h *Hub) Add(entities ...Entity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range entities {
		h.entities = append(h.entities, registered{id: uuid.NewString(), entity: e})
	}
}

// OnPublish registers fn to run after every publish pass with the states
// just published. Register before Run.
func (h *Hub) OnPublish(fn func([]EntityState)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, fn)
}

// Run publishes the registration-time states, then updates every entity on
// each tick and publishes the results. Blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	h.publish()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Info("starting entity update loop",
		zap.Int("entities", len(h.snapshotEntities())),
		zap.Duration("update_interval", h.interval))

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("context done, stopping entity update loop")
			return ctx.Err()
		case <-ticker.C:
			for _, reg := range h.snapshotEntities() {
				reg.entity.Update(ctx)
			}
			h.publish()
		}
	}
}

// States returns the latest published state per entity in registration
// order.
func (h *Hub) States() []EntityState {
	h.mu.RLock()
	defer h.mu.RUnlock()

	states := make([]EntityState, 0, len(h.entities))
	for _, reg := range h.entities {
		if state, ok := h.latest[reg.id]; ok {
			states = append(states, state)
		}
	}

	return states
}

// StatesAfter returns published records with an index greater than the
// given one, oldest first.
func (h *Hub) StatesAfter(index uint64) []EntityStateRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var records []EntityStateRecord
	for _, record := range h.history {
		if record.Index > index {
			records = append(records, record)
		}
	}

	return records
}

func (h *Hub) snapshotEntities() []registered {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entities := make([]registered, len(h.entities))
	copy(entities, h.entities)

	return entities
}

func (h *Hub) publish() {
	now := time.Now()

	h.mu.Lock()
	published := make([]EntityState, 0, len(h.entities))
	for _, reg := range h.entities {
		state := EntityState{
			ID:         reg.id,
			Name:       reg.entity.Name(),
			State:      reg.entity.State(),
			Unit:       reg.entity.Unit(),
			Attributes: reg.entity.Attributes(),
			UpdatedAt:  now,
		}

		h.index++
		h.history = append(h.history, EntityStateRecord{Index: h.index, State: state})
		h.latest[reg.id] = state
		published = append(published, state)
	}
	if len(h.history) > historyLimit {
		h.history = h.history[len(h.history)-historyLimit:]
	}
	hooks := h.hooks
	h.mu.Unlock()

	for _, fn := range hooks {
		fn(published)
	}
}
