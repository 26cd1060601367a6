package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mrpdigital/office-portal/internal/domain/letter"
	"github.com/mrpdigital/office-portal/internal/reconcile"
	"github.com/mrpdigital/office-portal/internal/remote"
)

type storeMock struct {
	mock.Mock
}

func (m *storeMock) ReplaceAll(ctx context.Context, letters []letter.Letter) error {
	args := m.Called(ctx, letters)
	return args.Error(0)
}

type remoteMock struct {
	mock.Mock
}

func (m *remoteMock) PushSaveLetter(ctx context.Context, data any) remote.SyncResult {
	args := m.Called(ctx, data)
	return args.Get(0).(remote.SyncResult)
}

func (m *remoteMock) PushUpdateLetter(ctx context.Context, id string, data any) remote.SyncResult {
	args := m.Called(ctx, id, data)
	return args.Get(0).(remote.SyncResult)
}

func (m *remoteMock) PushDeleteLetter(ctx context.Context, id string) remote.SyncResult {
	args := m.Called(ctx, id)
	return args.Get(0).(remote.SyncResult)
}

func (m *remoteMock) PullAll(ctx context.Context) (remote.PullResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(remote.PullResult), args.Error(1)
}

func (m *remoteMock) Ping(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func TestController_HydrateRemoteWins(t *testing.T) {
	ctx := context.Background()
	store := &storeMock{}
	rem := &remoteMock{}

	pulled := []letter.Letter{
		{ID: "l1", Sequence: 341, Date: letter.NewDate(2025, time.June, 1)},
		{ID: "l2", Sequence: 342, Date: letter.NewDate(2025, time.July, 2)},
	}
	rem.On("PullAll", ctx).Return(remote.PullResult{Letters: pulled, Quarantined: 1}, nil)
	store.On("ReplaceAll", ctx, pulled).Return(nil)

	c := reconcile.NewController(store, rem, 0, nil)
	require.NoError(t, c.Hydrate(ctx))

	store.AssertCalled(t, "ReplaceAll", ctx, pulled)
	st := c.Status()
	require.True(t, st.Reachable)
	require.Equal(t, 2, st.RecordCount)
	require.Equal(t, 1, st.Quarantined)
	require.False(t, st.LastHydration.IsZero())
}

func TestController_HydrateEmptyKeepsLocal(t *testing.T) {
	ctx := context.Background()
	store := &storeMock{}
	rem := &remoteMock{}

	rem.On("PullAll", ctx).Return(remote.PullResult{}, nil)

	c := reconcile.NewController(store, rem, 0, nil)
	require.NoError(t, c.Hydrate(ctx))

	store.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
	st := c.Status()
	require.True(t, st.Reachable)
	// RecordCount mirrors the remote's record set, not the local one.
	require.Zero(t, st.RecordCount)
}

func TestController_HydrateFailureKeepsLocal(t *testing.T) {
	ctx := context.Background()
	store := &storeMock{}
	rem := &remoteMock{}

	rem.On("PullAll", ctx).Return(remote.PullResult{}, remote.ErrUnreachable)

	c := reconcile.NewController(store, rem, 0, nil)
	err := c.Hydrate(ctx)
	require.ErrorIs(t, err, remote.ErrUnreachable)

	store.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
	st := c.Status()
	require.False(t, st.Reachable)
	require.NotEmpty(t, st.LastError)
}

func TestController_PropagatesSaveAsync(t *testing.T) {
	store := &storeMock{}
	rem := &remoteMock{}

	l := letter.Letter{ID: "l1", Sequence: 341}
	rem.On("PushSaveLetter", mock.Anything, l).Return(remote.SyncResult{State: remote.Dispatched})

	c := reconcile.NewController(store, rem, time.Second, nil)
	c.LetterSaved(l)
	c.Flush()

	rem.AssertCalled(t, "PushSaveLetter", mock.Anything, l)
}

func TestController_LostPushDoesNotSurface(t *testing.T) {
	store := &storeMock{}
	rem := &remoteMock{}

	rem.On("PushDeleteLetter", mock.Anything, "l1").
		Return(remote.SyncResult{State: remote.Failed, Reason: "connection refused"})

	c := reconcile.NewController(store, rem, time.Second, nil)
	// Must not panic or block; the failure is logged and dropped.
	c.LetterDeleted("l1")
	c.Flush()

	rem.AssertCalled(t, "PushDeleteLetter", mock.Anything, "l1")
}

func TestController_Ping(t *testing.T) {
	store := &storeMock{}
	rem := &remoteMock{}
	rem.On("Ping", mock.Anything).Return(true)

	c := reconcile.NewController(store, rem, 0, nil)
	require.True(t, c.Ping(context.Background()))
	require.True(t, c.Status().Reachable)
}
