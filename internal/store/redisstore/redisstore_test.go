package redisstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotetodos/internal/pool"
	"remotetodos/internal/queue"
	"remotetodos/internal/store/storetest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := Open("redis://"+mr.Addr(), Options{PoolSize: 4})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) pool.Dialer {
		s, _ := newTestStore(t)
		return s
	})
}

func TestPersistedLayout(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	conn, err := s.Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.RPush(ctx, "todos", `{"description":"buy milk","completed":false}`)
	require.NoError(t, err)

	list, err := mr.List("todos")
	require.NoError(t, err)
	assert.Equal(t, []string{`{"description":"buy milk","completed":false}`}, list)
}

func TestPing(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}

func TestServerErrorsAreBackendErrors(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	// A string at the list key makes every list command fail with WRONGTYPE
	require.NoError(t, mr.Set("todos", "scalar"))

	conn, err := s.Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = queue.New[map[string]any](conn, "todos", nil).All(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, queue.ErrBackend)
	assert.NotErrorIs(t, err, queue.ErrIndexOutOfRange)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"index out of range", errors.New("ERR index out of range"), queue.ErrIndexOutOfRange},
		{"no such key", errors.New("ERR no such key"), queue.ErrIndexOutOfRange},
		{"pool timeout", errors.New("redis: connection pool timeout"), queue.ErrPoolExhausted},
		{"other", redis.ErrClosed, redis.ErrClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open("http://localhost", Options{})
	assert.Error(t, err)
}
