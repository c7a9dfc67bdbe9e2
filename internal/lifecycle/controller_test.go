package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-floor-backend/internal/cache"
	"pos-floor-backend/internal/model"
	"pos-floor-backend/internal/registry"
	"pos-floor-backend/internal/remote"
)

// fakeClient implements remote.Client with overridable behavior and call
// counters for the fail-fast assertions.
type fakeClient struct {
	calls int

	startSessionFunc     func(ctx context.Context, label, serverID, serverName string) (remote.StartResult, error)
	stopSessionFunc      func(ctx context.Context, label string) (remote.StopResult, error)
	moveSessionFunc      func(ctx context.Context, fromLabel, toLabel string) error
	getActiveSessionFunc func(ctx context.Context, label string) (*model.ActiveSession, error)
	closeOrdersFunc      func(ctx context.Context, label string) error
}

func (f *fakeClient) ListTables(ctx context.Context) ([]model.TableRecord, error) {
	f.calls++
	return nil, nil
}

func (f *fakeClient) UpsertTables(ctx context.Context, tables []model.TableRecord) error {
	f.calls++
	return nil
}

func (f *fakeClient) StartSession(ctx context.Context, label, serverID, serverName string) (remote.StartResult, error) {
	f.calls++
	if f.startSessionFunc == nil {
		return remote.StartResult{SessionID: "s-new", BillingID: "b-new"}, nil
	}
	return f.startSessionFunc(ctx, label, serverID, serverName)
}

func (f *fakeClient) StopSession(ctx context.Context, label string) (remote.StopResult, error) {
	f.calls++
	if f.stopSessionFunc == nil {
		return remote.StopResult{BillSummary: "total 0.00"}, nil
	}
	return f.stopSessionFunc(ctx, label)
}

func (f *fakeClient) MoveSession(ctx context.Context, fromLabel, toLabel string) error {
	f.calls++
	if f.moveSessionFunc == nil {
		return nil
	}
	return f.moveSessionFunc(ctx, fromLabel, toLabel)
}

func (f *fakeClient) GetActiveSession(ctx context.Context, label string) (*model.ActiveSession, error) {
	f.calls++
	if f.getActiveSessionFunc == nil {
		return nil, nil
	}
	return f.getActiveSessionFunc(ctx, label)
}

func (f *fakeClient) ListActiveSessions(ctx context.Context) ([]model.ActiveSession, error) {
	f.calls++
	return nil, nil
}

func (f *fakeClient) GetSessionItems(ctx context.Context, label string) ([]model.LineItem, error) {
	f.calls++
	return nil, nil
}

func (f *fakeClient) CloseOrders(ctx context.Context, label string) error {
	f.calls++
	if f.closeOrdersFunc == nil {
		return nil
	}
	return f.closeOrdersFunc(ctx, label)
}

// fakeRefresher counts refresh requests.
type fakeRefresher struct {
	refreshes int
}

func (f *fakeRefresher) Refresh(ctx context.Context) { f.refreshes++ }

func strPtr(s string) *string { return &s }

func newController(t *testing.T, client remote.Client, recs ...model.TableRecord) (*Controller, *registry.Registry, *cache.TimerCache) {
	reg := registry.New()
	reg.UpsertMany(recs)
	timers := cache.NewTimerCache(filepath.Join(t.TempDir(), "timers.json"))
	return New(reg, client, timers, nil, nil), reg, timers
}

// sessionFor wires GetActiveSession so that consistency checks see a
// session exactly for the given labels.
func sessionFor(sessions map[string]model.ActiveSession) func(ctx context.Context, label string) (*model.ActiveSession, error) {
	return func(ctx context.Context, label string) (*model.ActiveSession, error) {
		if s, ok := sessions[model.LabelKey(label)]; ok {
			copied := s
			return &copied, nil
		}
		return nil, nil
	}
}

func TestStart_FailsFastOnOccupiedTable(t *testing.T) {
	client := &fakeClient{}
	ctrl, _, _ := newController(t, client,
		model.TableRecord{Label: "Bar 3", Kind: model.KindFlat, Occupied: true, SessionID: strPtr("s-1")},
	)

	_, err := ctrl.Start(context.Background(), "Bar 3", "srv-1", "alice")

	assert.ErrorIs(t, err, ErrAlreadyOccupied)
	// Rejected before any remote call.
	assert.Zero(t, client.calls)
}

func TestStop_FailsFastOnAvailableTable(t *testing.T) {
	client := &fakeClient{}
	ctrl, _, _ := newController(t, client,
		model.TableRecord{Label: "Bar 3", Kind: model.KindFlat},
	)

	_, err := ctrl.Stop(context.Background(), "Bar 3")

	assert.ErrorIs(t, err, ErrNotOccupied)
	assert.Zero(t, client.calls)
}

func TestMove_FailsFastOnOccupiedDestination(t *testing.T) {
	client := &fakeClient{}
	ctrl, _, _ := newController(t, client,
		model.TableRecord{Label: "Bar 1", Kind: model.KindFlat, Occupied: true},
		model.TableRecord{Label: "Bar 5", Kind: model.KindFlat, Occupied: true},
	)

	err := ctrl.Move(context.Background(), "Bar 1", "Bar 5")

	assert.ErrorIs(t, err, ErrDestinationOccupied)
	assert.Zero(t, client.calls)
}

func TestStartStop_NormalScenario(t *testing.T) {
	sessions := map[string]model.ActiveSession{}
	client := &fakeClient{
		getActiveSessionFunc: sessionFor(sessions),
		startSessionFunc: func(ctx context.Context, label, serverID, serverName string) (remote.StartResult, error) {
			sessions[model.LabelKey(label)] = model.ActiveSession{Label: label, SessionID: "s-77", BillingID: "b-77"}
			return remote.StartResult{SessionID: "s-77", BillingID: "b-77"}, nil
		},
		stopSessionFunc: func(ctx context.Context, label string) (remote.StopResult, error) {
			delete(sessions, model.LabelKey(label))
			return remote.StopResult{BillSummary: "total 42.50"}, nil
		},
	}
	ctrl, reg, timers := newController(t, client,
		model.TableRecord{Label: "Bar 3", Kind: model.KindTimed},
	)

	res, err := ctrl.Start(context.Background(), "Bar 3", "srv-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "s-77", res.SessionID)
	assert.Empty(t, res.Warning)

	rec, _ := reg.Get("Bar 3")
	assert.True(t, rec.Occupied)
	require.NotNil(t, rec.ServerName)
	assert.Equal(t, "alice", *rec.ServerName)
	require.NotNil(t, rec.StartTime)

	// The start timestamp is cached for offline fallback.
	cached := timers.Load()
	assert.Contains(t, cached, "bar 3")

	stopRes, err := ctrl.Stop(context.Background(), "Bar 3")
	require.NoError(t, err)
	assert.Equal(t, "total 42.50", stopRes.BillSummary)

	rec, _ = reg.Get("Bar 3")
	assert.False(t, rec.Occupied)
	assert.Nil(t, rec.StartTime)
	assert.Nil(t, rec.SessionID)
	assert.NotContains(t, timers.Load(), "bar 3")
}

func TestStart_PostVerificationWarning(t *testing.T) {
	client := &fakeClient{
		getActiveSessionFunc: func(ctx context.Context, label string) (*model.ActiveSession, error) {
			// Consistent before start, but the new session never shows up.
			return nil, nil
		},
	}
	ctrl, reg, _ := newController(t, client,
		model.TableRecord{Label: "Bar 3", Kind: model.KindTimed},
	)

	res, err := ctrl.Start(context.Background(), "Bar 3", "srv-1", "alice")

	require.NoError(t, err)
	assert.NotEmpty(t, res.Warning)
	// No rollback: the table stays occupied for reconciliation to settle.
	rec, _ := reg.Get("Bar 3")
	assert.True(t, rec.Occupied)
}

func TestRepair_OccupiedWithoutSession_Recreates(t *testing.T) {
	sessions := map[string]model.ActiveSession{}
	client := &fakeClient{
		getActiveSessionFunc: sessionFor(sessions),
		startSessionFunc: func(ctx context.Context, label, serverID, serverName string) (remote.StartResult, error) {
			assert.Equal(t, "bob", serverName)
			sessions[model.LabelKey(label)] = model.ActiveSession{Label: label, SessionID: "s-new"}
			return remote.StartResult{SessionID: "s-new", BillingID: "b-new"}, nil
		},
	}
	start := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	ctrl, reg, _ := newController(t, client,
		model.TableRecord{
			Label: "Billiard 2", Kind: model.KindTimed, Occupied: true,
			SessionID: strPtr("s-lost"), ServerName: strPtr("bob"), StartTime: &start,
		},
	)

	reason, drifted, err := ctrl.CheckConsistency(context.Background(), "Billiard 2")
	require.NoError(t, err)
	require.True(t, drifted)
	assert.Equal(t, OccupiedWithoutSession, reason)

	require.NoError(t, ctrl.Repair(context.Background(), "Billiard 2"))

	// Canonical state one: occupied with a matching remote session.
	rec, _ := reg.Get("Billiard 2")
	assert.True(t, rec.Occupied)
	assert.Equal(t, "s-new", *rec.SessionID)
	require.Contains(t, sessions, "billiard 2")

	_, drifted, err = ctrl.CheckConsistency(context.Background(), "Billiard 2")
	require.NoError(t, err)
	assert.False(t, drifted)
}

func TestRepair_OccupiedWithoutSession_RecreationFailsForcesAvailable(t *testing.T) {
	client := &fakeClient{
		getActiveSessionFunc: func(ctx context.Context, label string) (*model.ActiveSession, error) {
			return nil, nil
		},
		startSessionFunc: func(ctx context.Context, label, serverID, serverName string) (remote.StartResult, error) {
			return remote.StartResult{}, errors.New("store unavailable")
		},
	}
	ctrl, reg, timers := newController(t, client,
		model.TableRecord{
			Label: "Billiard 2", Kind: model.KindTimed, Occupied: true,
			SessionID: strPtr("s-lost"), BillingID: strPtr("b-lost"), ServerName: strPtr("bob"),
		},
	)
	timers.Set("Billiard 2", time.Now().UTC())

	require.NoError(t, ctrl.Repair(context.Background(), "Billiard 2"))

	// Canonical state two: available with every session field cleared.
	rec, _ := reg.Get("Billiard 2")
	assert.False(t, rec.Occupied)
	assert.Nil(t, rec.SessionID)
	assert.Nil(t, rec.BillingID)
	assert.Nil(t, rec.StartTime)
	assert.Nil(t, rec.ServerName)
	assert.NotContains(t, timers.Load(), "billiard 2")
}

func TestRepair_SessionWithoutOccupied_AdoptsRemote(t *testing.T) {
	start := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	client := &fakeClient{
		getActiveSessionFunc: sessionFor(map[string]model.ActiveSession{
			"billiard 5": {Label: "Billiard 5", SessionID: "s-44", BillingID: "b-44", StartTime: &start},
		}),
	}
	ctrl, reg, _ := newController(t, client,
		model.TableRecord{Label: "Billiard 5", Kind: model.KindTimed},
	)

	reason, drifted, err := ctrl.CheckConsistency(context.Background(), "Billiard 5")
	require.NoError(t, err)
	require.True(t, drifted)
	assert.Equal(t, SessionWithoutOccupied, reason)

	require.NoError(t, ctrl.Repair(context.Background(), "Billiard 5"))

	rec, _ := reg.Get("Billiard 5")
	assert.True(t, rec.Occupied)
	assert.Equal(t, "s-44", *rec.SessionID)
	assert.Equal(t, "b-44", *rec.BillingID)
	require.NotNil(t, rec.StartTime)
	assert.True(t, rec.StartTime.Equal(start))
}

func TestStart_AfterRepairAdoptsSessionRejects(t *testing.T) {
	start := time.Now().UTC()
	client := &fakeClient{
		getActiveSessionFunc: sessionFor(map[string]model.ActiveSession{
			"bar 2": {Label: "Bar 2", SessionID: "s-9", StartTime: &start},
		}),
	}
	ctrl, reg, _ := newController(t, client,
		model.TableRecord{Label: "Bar 2", Kind: model.KindFlat},
	)

	// Locally available but remotely occupied: repair adopts the session,
	// so the start request must be rejected rather than double-booked.
	_, err := ctrl.Start(context.Background(), "Bar 2", "srv-1", "alice")
	assert.ErrorIs(t, err, ErrAlreadyOccupied)

	rec, _ := reg.Get("Bar 2")
	assert.True(t, rec.Occupied)
	assert.Equal(t, "s-9", *rec.SessionID)
}

func TestStart_ConsistencyCheckFailureAborts(t *testing.T) {
	client := &fakeClient{
		getActiveSessionFunc: func(ctx context.Context, label string) (*model.ActiveSession, error) {
			return nil, errors.New("store unavailable")
		},
	}
	ctrl, reg, _ := newController(t, client,
		model.TableRecord{Label: "Bar 3", Kind: model.KindFlat},
	)

	_, err := ctrl.Start(context.Background(), "Bar 3", "srv-1", "alice")

	assert.Error(t, err)
	rec, _ := reg.Get("Bar 3")
	assert.False(t, rec.Occupied)
}

func TestStop_RepairReleasedTable(t *testing.T) {
	client := &fakeClient{
		getActiveSessionFunc: func(ctx context.Context, label string) (*model.ActiveSession, error) {
			return nil, nil
		},
		startSessionFunc: func(ctx context.Context, label, serverID, serverName string) (remote.StartResult, error) {
			return remote.StartResult{}, errors.New("store unavailable")
		},
	}
	ctrl, reg, _ := newController(t, client,
		model.TableRecord{Label: "Billiard 1", Kind: model.KindTimed, Occupied: true, SessionID: strPtr("s-x")},
	)

	var stopCalled bool
	client.stopSessionFunc = func(ctx context.Context, label string) (remote.StopResult, error) {
		stopCalled = true
		return remote.StopResult{}, nil
	}

	res, err := ctrl.Stop(context.Background(), "Billiard 1")

	require.NoError(t, err)
	assert.NotEmpty(t, res.Message)
	assert.False(t, stopCalled)
	rec, _ := reg.Get("Billiard 1")
	assert.False(t, rec.Occupied)
}

func TestStop_OrderClosureFailureDoesNotBlock(t *testing.T) {
	start := time.Now().UTC()
	client := &fakeClient{
		getActiveSessionFunc: sessionFor(map[string]model.ActiveSession{
			"bar 3": {Label: "Bar 3", SessionID: "s-1", StartTime: &start},
		}),
		closeOrdersFunc: func(ctx context.Context, label string) error {
			return errors.New("print spooler offline")
		},
	}
	ctrl, reg, _ := newController(t, client,
		model.TableRecord{Label: "Bar 3", Kind: model.KindFlat, Occupied: true, SessionID: strPtr("s-1")},
	)

	_, err := ctrl.Stop(context.Background(), "Bar 3")

	require.NoError(t, err)
	rec, _ := reg.Get("Bar 3")
	assert.False(t, rec.Occupied)
}

func TestMove_RelocatesSessionAndRefreshes(t *testing.T) {
	start := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	var movedFrom, movedTo string
	client := &fakeClient{
		moveSessionFunc: func(ctx context.Context, fromLabel, toLabel string) error {
			movedFrom, movedTo = fromLabel, toLabel
			return nil
		},
	}

	reg := registry.New()
	reg.UpsertMany([]model.TableRecord{
		{Label: "Bar 1", Kind: model.KindFlat, Occupied: true, SessionID: strPtr("s-7"), StartTime: &start},
		{Label: "Bar 5", Kind: model.KindFlat},
	})
	timers := cache.NewTimerCache(filepath.Join(t.TempDir(), "timers.json"))
	timers.Set("Bar 1", start)
	refresher := &fakeRefresher{}
	ctrl := New(reg, client, timers, nil, refresher)

	err := ctrl.Move(context.Background(), "Bar 1", "Bar 5")

	require.NoError(t, err)
	assert.Equal(t, "Bar 1", movedFrom)
	assert.Equal(t, "Bar 5", movedTo)
	assert.Equal(t, 1, refresher.refreshes)

	// The cached start time travels with the session.
	cached := timers.Load()
	assert.NotContains(t, cached, "bar 1")
	require.Contains(t, cached, "bar 5")
	assert.True(t, cached["bar 5"].Equal(start))
}

func TestAssignBetweenKinds(t *testing.T) {
	client := &fakeClient{}
	ctrl, _, _ := newController(t, client,
		model.TableRecord{Label: "Bar 1", Kind: model.KindFlat, Occupied: true, SessionID: strPtr("s-1")},
		model.TableRecord{Label: "Bar 2", Kind: model.KindFlat},
		model.TableRecord{Label: "Billiard 1", Kind: model.KindTimed},
		model.TableRecord{Label: "Billiard 2", Kind: model.KindTimed, Occupied: true},
	)

	// Candidates are the available tables of the requested kind only.
	assert.Equal(t, []string{"Billiard 1"}, ctrl.AvailableByKind(model.KindTimed))
	assert.Equal(t, []string{"Bar 2"}, ctrl.AvailableByKind(model.KindFlat))

	// Destination of the wrong kind is rejected before any remote call.
	err := ctrl.AssignBetweenKinds(context.Background(), "Bar 1", "Bar 2", model.KindTimed)
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.Zero(t, client.calls)

	err = ctrl.AssignBetweenKinds(context.Background(), "Bar 1", "Billiard 1", model.KindTimed)
	assert.NoError(t, err)
}
