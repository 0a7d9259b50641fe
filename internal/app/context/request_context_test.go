package context

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.Nil(t, FromContext(nil))
	assert.Nil(t, FromContext(context.Background()))

	rc := New()
	assert.Same(t, rc, FromContext(WithContext(context.Background(), rc)))
}

func TestGetOrFetch_CachesSuccess(t *testing.T) {
	rc := New()

	var calls int32
	fetch := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "profile", nil
	}

	for range 3 {
		v, err := rc.GetOrFetch(context.Background(), "graph:token", fetch)
		require.NoError(t, err)
		assert.Equal(t, "profile", v)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetOrFetch_FailuresAreNotCached(t *testing.T) {
	rc := New()
	boom := errors.New("provider down")

	var calls int32
	fetch := func(context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, boom
		}

		return "profile", nil
	}

	_, err := rc.GetOrFetch(context.Background(), "k", fetch)
	require.ErrorIs(t, err, boom)

	v, err := rc.GetOrFetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, "profile", v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetOrFetch_ConcurrentCallersShareOneFetch(t *testing.T) {
	rc := New()
	release := make(chan struct{})

	var calls int32
	fetch := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	const callers = 10

	var wg sync.WaitGroup
	results := make([]any, callers)

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()
			results[i], _ = rc.GetOrFetch(context.Background(), "k", fetch)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, 42, r)
	}
}

func TestFetch(t *testing.T) {
	t.Run("without a request context fetches every time", func(t *testing.T) {
		var calls int
		fetch := func(context.Context) (string, error) {
			calls++
			return "v", nil
		}

		for range 2 {
			v, err := Fetch(context.Background(), "k", fetch)
			require.NoError(t, err)
			assert.Equal(t, "v", v)
		}

		assert.Equal(t, 2, calls)
	})

	t.Run("type mismatch on a shared key", func(t *testing.T) {
		ctx := WithContext(context.Background(), New())

		_, err := Fetch(ctx, "k", func(context.Context) (string, error) { return "v", nil })
		require.NoError(t, err)

		_, err = Fetch(ctx, "k", func(context.Context) (int, error) { return 1, nil })

		var mismatch *TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "k", mismatch.Key)
	})
}

type keyedProvider struct {
	key   string
	calls *int
}

func (p keyedProvider) Key() string { return p.key }

func (p keyedProvider) Fetch(context.Context) (string, error) {
	*p.calls++
	return "value-" + p.key, nil
}

func TestFetchProvider(t *testing.T) {
	ctx := WithContext(context.Background(), New())

	var calls int
	for range 2 {
		v, err := FetchProvider[string](ctx, keyedProvider{key: "a", calls: &calls})
		require.NoError(t, err)
		assert.Equal(t, "value-a", v)
	}

	assert.Equal(t, 1, calls)
}

// recordingAction appends to a shared log on execute and rollback.
type recordingAction struct {
	name    string
	log     *[]string
	failExe bool
	failRb  bool
}

func (a *recordingAction) Execute(context.Context) error {
	*a.log = append(*a.log, "exec:"+a.name)
	if a.failExe {
		return errors.New("exec failed")
	}

	return nil
}

func (a *recordingAction) Rollback(context.Context) error {
	*a.log = append(*a.log, "rollback:"+a.name)
	if a.failRb {
		return errors.New("rollback failed")
	}

	return nil
}

func (a *recordingAction) Description() string { return a.name }

func TestCommit(t *testing.T) {
	tests := []struct {
		name    string
		actions func(log *[]string) []*recordingAction
		wantLog []string
		wantErr []string
	}{
		{
			name: "runs in order",
			actions: func(log *[]string) []*recordingAction {
				return []*recordingAction{{name: "a", log: log}, {name: "b", log: log}}
			},
			wantLog: []string{"exec:a", "exec:b"},
		},
		{
			name: "failure rolls back earlier actions in reverse",
			actions: func(log *[]string) []*recordingAction {
				return []*recordingAction{
					{name: "a", log: log},
					{name: "b", log: log, failRb: true},
					{name: "c", log: log, failExe: true},
					{name: "d", log: log},
				}
			},
			wantLog: []string{"exec:a", "exec:b", "exec:c", "rollback:b", "rollback:a"},
			wantErr: []string{`action "c" failed`, `rollback "b"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log []string

			rc := New()
			for _, a := range tt.actions(&log) {
				require.NoError(t, rc.AddAction(a))
			}

			err := rc.Commit(context.Background())

			assert.Equal(t, tt.wantLog, log)

			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestCommitAndDiscard_AreFinal(t *testing.T) {
	var log []string

	t.Run("commit", func(t *testing.T) {
		rc := New()
		require.NoError(t, rc.Commit(context.Background()))

		assert.ErrorIs(t, rc.Commit(context.Background()), ErrAlreadyCommitted)
		assert.ErrorIs(t, rc.AddAction(&recordingAction{name: "late", log: &log}), ErrAlreadyCommitted)
	})

	t.Run("discard", func(t *testing.T) {
		rc := New()
		require.NoError(t, rc.AddAction(&recordingAction{name: "a", log: &log}))
		require.Len(t, rc.Actions(), 1)

		assert.Equal(t, 1, rc.Discard())
		assert.Empty(t, rc.Actions())
		assert.ErrorIs(t, rc.AddAction(&recordingAction{name: "late", log: &log}), ErrAlreadyCommitted)
		assert.ErrorIs(t, rc.Commit(context.Background()), ErrAlreadyCommitted)
	})

	assert.Empty(t, log, "nothing executed")
}
