package hub

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEntity struct {
	name    string
	updates int
}

func (f *fakeEntity) Name() string  { return f.name }
func (f *fakeEntity) State() string { return strconv.Itoa(f.updates) }
func (f *fakeEntity) Unit() string  { return "BTC" }

func (f *fakeEntity) Attributes() map[string]any {
	return map[string]any{"type": "wallet"}
}

func (f *fakeEntity) Update(_ context.Context) { f.updates++ }

func TestHub_AddAssignsIDs(t *testing.T) {
	h := New(time.Second, zap.NewNop())
	h.Add(&fakeEntity{name: "Coinbase Checking"}, &fakeEntity{name: "Coinbase Vault"})

	h.publish()

	states := h.States()
	require.Len(t, states, 2)
	assert.Equal(t, "Coinbase Checking", states[0].Name)
	assert.Equal(t, "Coinbase Vault", states[1].Name)
	assert.NotEmpty(t, states[0].ID)
	assert.NotEmpty(t, states[1].ID)
	assert.NotEqual(t, states[0].ID, states[1].ID)
}

func TestHub_StatesAfter(t *testing.T) {
	h := New(time.Second, zap.NewNop())
	h.Add(&fakeEntity{name: "Coinbase Checking"}, &fakeEntity{name: "Coinbase Vault"})

	h.publish()
	h.publish()

	all := h.StatesAfter(0)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Index, all[i-1].Index)
	}

	tail := h.StatesAfter(all[1].Index)
	require.Len(t, tail, 2)
	assert.Equal(t, all[2].Index, tail[0].Index)
}

func TestHub_OnPublish(t *testing.T) {
	h := New(time.Second, zap.NewNop())
	h.Add(&fakeEntity{name: "Coinbase Checking"})

	var got []EntityState
	h.OnPublish(func(states []EntityState) { got = append(got, states...) })

	h.publish()

	require.Len(t, got, 1)
	assert.Equal(t, "Coinbase Checking", got[0].Name)
}

func TestHub_RunUpdatesEntities(t *testing.T) {
	h := New(20*time.Millisecond, zap.NewNop())
	entity := &fakeEntity{name: "Coinbase Checking"}
	h.Add(entity)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := h.Run(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded))

	assert.GreaterOrEqual(t, entity.updates, 1, "run loop must drive entity updates")

	states := h.States()
	require.Len(t, states, 1)
	assert.Equal(t, strconv.Itoa(entity.updates), states[0].State)
}
