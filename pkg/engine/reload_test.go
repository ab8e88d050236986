package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/ramlmock/pkg/resource"
)

func treeTitled(title string) *resource.Tree {
	return resource.NewBuilder().Build(resource.Info{Title: title})
}

func TestReloader_KeepsLastGoodTree(t *testing.T) {
	var fail atomic.Bool
	var n atomic.Int32
	r := NewReloader(func(context.Context) (*resource.Tree, error) {
		if fail.Load() {
			return nil, errors.New("broken description")
		}
		return treeTitled(fmt.Sprintf("v%d", n.Add(1))), nil
	})

	assert.Nil(t, r.Current())
	require.NoError(t, r.Reload(context.Background()))
	first := r.Current()
	require.NotNil(t, first)
	assert.Equal(t, "v1", first.Info().Title)

	fail.Store(true)
	err := r.Reload(context.Background())
	require.EqualError(t, err, "broken description")
	assert.Same(t, first, r.Current())
	assert.EqualError(t, r.LastError(), "broken description")
	assert.Equal(t, ReloadStats{Reloads: 1, Failures: 1}, r.Stats())

	fail.Store(false)
	require.NoError(t, r.Reload(context.Background()))
	assert.Equal(t, "v2", r.Current().Info().Title)
	assert.NoError(t, r.LastError())
	// A reader holding the old snapshot is unaffected.
	assert.Equal(t, "v1", first.Info().Title)
}

func TestReloader_NilTree(t *testing.T) {
	r := NewReloader(func(context.Context) (*resource.Tree, error) { return nil, nil })
	assert.Error(t, r.Reload(context.Background()))
	assert.Nil(t, r.Current())
}

func TestReloader_StateDuringRebuild(t *testing.T) {
	release := make(chan struct{})
	r := NewReloader(func(context.Context) (*resource.Tree, error) {
		<-release
		return treeTitled("x"), nil
	})

	done := make(chan error, 1)
	go func() { done <- r.Reload(context.Background()) }()

	require.Eventually(t, func() bool { return r.State() == StateRebuilding }, time.Second, 5*time.Millisecond)
	assert.Nil(t, r.Current())
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, r.State())
	assert.Equal(t, "idle", r.State().String())
}

func TestReloader_RunCoalescesNotifications(t *testing.T) {
	var loads atomic.Int32
	r := NewReloader(func(context.Context) (*resource.Tree, error) {
		loads.Add(1)
		return treeTitled("x"), nil
	}, WithDebounce(20*time.Millisecond))

	for range 10 {
		r.Notify()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return loads.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), loads.Load())

	r.Notify()
	require.Eventually(t, func() bool { return loads.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
