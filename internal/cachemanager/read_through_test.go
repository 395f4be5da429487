package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockManager struct {
	mock.Mock
}

func (m *mockManager) Get(ctx context.Context, key string) (string, bool) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1)
}

func (m *mockManager) GetMultiple(ctx context.Context, keys []string) (map[string]string, []string) {
	args := m.Called(ctx, keys)
	return args.Get(0).(map[string]string), args.Get(1).([]string)
}

func (m *mockManager) GetWithRefresh(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1)
}

func (m *mockManager) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *mockManager) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockManager) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func upper(calls *int) func(context.Context, string) (string, error) {
	return func(_ context.Context, in string) (string, error) {
		*calls++
		return "JS:" + in, nil
	}
}

func TestReadThrough_SkipBypassesCache(t *testing.T) {
	m := &mockManager{}
	calls := 0
	rt := NewReadThrough[string, string, string](m, upper(&calls), time.Minute, true)

	got, err := rt.Get(context.Background(), "k", "print(1)")
	require.NoError(t, err)
	require.Equal(t, "JS:print(1)", got)
	require.Equal(t, 1, calls)
	m.AssertExpectations(t)
}

func TestReadThrough_HitDoesNotCallFn(t *testing.T) {
	ctx := context.Background()
	m := &mockManager{}
	m.On("GetWithRefresh", ctx, "k", time.Minute).Return("cached", true).Once()
	calls := 0
	rt := NewReadThrough[string, string, string](m, upper(&calls), time.Minute, false)

	got, err := rt.Get(ctx, "k", "print(1)")
	require.NoError(t, err)
	require.Equal(t, "cached", got)
	require.Zero(t, calls)
	m.AssertExpectations(t)
}

func TestReadThrough_MissStoresResult(t *testing.T) {
	ctx := context.Background()
	m := &mockManager{}
	m.On("GetWithRefresh", ctx, "k", time.Minute).Return("", false).Once()
	m.On("Set", ctx, "k", "JS:print(1)", time.Minute).Once()
	calls := 0
	rt := NewReadThrough[string, string, string](m, upper(&calls), time.Minute, false)

	got, err := rt.Get(ctx, "k", "print(1)")
	require.NoError(t, err)
	require.Equal(t, "JS:print(1)", got)
	require.Equal(t, 1, calls)
	m.AssertExpectations(t)
}

func TestReadThrough_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	m := &mockManager{}
	m.On("GetWithRefresh", ctx, "k", time.Minute).Return("", false).Once()
	boom := errors.New("quota")
	rt := NewReadThrough[string, string, string](m, func(context.Context, string) (string, error) {
		return "", boom
	}, time.Minute, false)

	_, err := rt.Get(ctx, "k", "x")
	require.ErrorIs(t, err, boom)
	m.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadThrough_WithMemory(t *testing.T) {
	calls := 0
	rt := NewReadThrough[string, string, string](NewMemory[string, string]("compile", 0, 0), upper(&calls), time.Minute, false)

	for range 3 {
		got, err := rt.Get(context.Background(), "same", "a")
		require.NoError(t, err)
		require.Equal(t, "JS:a", got)
	}
	require.Equal(t, 1, calls)
}
