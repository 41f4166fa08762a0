package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teacurran/village-jobs/pkg/core"
)

func noopHandler() core.Handler {
	return core.HandlerFunc(func(ctx context.Context, actorID string) error {
		return nil
	})
}

func TestRegister_AndLookup(t *testing.T) {
	r := New()
	h := noopHandler()

	require.NoError(t, r.Register(core.Metadata{Queue: "order-notification", Priority: 10}, h))

	got, ok := r.Handler("order-notification")
	require.True(t, ok)
	assert.NotNil(t, got)

	meta, ok := r.Metadata("order-notification")
	require.True(t, ok)
	assert.Equal(t, "order-notification", meta.Queue)
	assert.Equal(t, 10, meta.Priority)
}

func TestRegister_RejectsDuplicateQueue(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(core.Metadata{Queue: "emails"}, noopHandler()))

	err := r.Register(core.Metadata{Queue: "emails", Priority: 3}, noopHandler())
	assert.ErrorIs(t, err, core.ErrDuplicateQueue)
}

func TestRegister_RejectsNilHandler(t *testing.T) {
	r := New()
	assert.Error(t, r.Register(core.Metadata{Queue: "emails"}, nil))
}

func TestRegister_RejectsInvalidQueueName(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.Register(core.Metadata{Queue: ""}, noopHandler()), core.ErrInvalidQueueName)
	assert.ErrorIs(t, r.Register(core.Metadata{Queue: "has space"}, noopHandler()), core.ErrInvalidQueueName)
}

func TestLookup_UnknownQueue(t *testing.T) {
	r := New()

	_, ok := r.Handler("nope")
	assert.False(t, ok)

	_, ok = r.Metadata("nope")
	assert.False(t, ok)
}

func TestMustRegister_PanicsOnError(t *testing.T) {
	r := New()
	r.MustRegister(core.Metadata{Queue: "emails"}, noopHandler())

	assert.Panics(t, func() {
		r.MustRegister(core.Metadata{Queue: "emails"}, noopHandler())
	})
}

func TestQueues_Sorted(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(core.Metadata{Queue: "zeta"}, noopHandler()))
	require.NoError(t, r.Register(core.Metadata{Queue: "alpha"}, noopHandler()))
	require.NoError(t, r.Register(core.Metadata{Queue: "mid"}, noopHandler()))

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Queues())
}
