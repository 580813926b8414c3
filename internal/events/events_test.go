package events

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestDecode(t *testing.T) {
	event, err := Decode([]byte(`{"type":"STATUS_CHANGED","complaintId":7,"status":"RESOLVED"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeStatusChanged, event.Type)
	assert.Equal(t, int64(7), event.ComplaintID)

	_, err = Decode([]byte(`{"complaintId":7}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewComplaintEvent(t *testing.T) {
	a := NewComplaintEvent(TypeCreated, 1)
	b := NewComplaintEvent(TypeCreated, 1)
	assert.NotEmpty(t, a.CorrelationID)
	assert.NotEqual(t, a.CorrelationID, b.CorrelationID)
	assert.False(t, a.Timestamp.IsZero())
}

func TestLocalPublisherDeliversAndDrains(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	logger := zerolog.Nop()
	var mu sync.Mutex
	var got []int64

	p := NewLocalPublisher(func(ctx context.Context, e ComplaintEvent) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.ComplaintID)
		return nil
	}, 4, &logger)

	for i := int64(1); i <= 10; i++ {
		require.NoError(t, p.Publish(NewComplaintEvent(TypeStatusChanged, i)))
	}
	p.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)

	assert.ErrorIs(t, p.Publish(NewComplaintEvent(TypeCreated, 11)), ErrPublisherClosed)
	p.Close()
}
