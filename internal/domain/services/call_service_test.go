package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
)

type callFixture struct {
	svc       InterfaceCallService
	settings  InterfaceCadSettingsService
	broadcast *recorder
	webhook   *webhookRecorder
}

func newCallFixture(t *testing.T) (*callFixture, *gorm.DB) {
	db := newTestDB(t)
	cfg := testConfig()
	f := &callFixture{
		settings:  NewCadSettingsService(db, cfg, nil),
		broadcast: &recorder{},
		webhook:   &webhookRecorder{},
	}
	f.svc = NewCallService(db, cfg, f.settings, f.broadcast, f.webhook)
	return f, db
}

func TestCreateCall(t *testing.T) {
	ctx := context.Background()
	f, db := newCallFixture(t)
	officer := seedOfficer(t, db, "1A-10", nil)

	call, err := f.svc.CreateCall(ctx, nil, CallInput{
		Location:      "Legion Square",
		Description:   "Shots fired",
		AssignedUnits: []string{officer.ID},
	})
	require.NoError(t, err)
	require.Len(t, call.AssignedUnits, 1)
	assert.Equal(t, models.UnitKindOfficer, call.AssignedUnits[0].UnitKind)
	assert.Equal(t, call.ID, *reloadOfficer(t, db, officer.ID).ActiveCallID)
	assert.Equal(t, 1, f.broadcast.count(EventCreate911Call))
	assert.Equal(t, []WebhookType{WebhookCall911}, f.webhook.types())

	_, err = f.svc.CreateCall(ctx, nil, CallInput{Location: " "})
	assert.True(t, code.Is(err, code.ErrValidation))

	_, err = f.svc.CreateCall(ctx, nil, CallInput{Location: "Paleto", AssignedUnits: []string{"ghost"}})
	assert.True(t, code.Is(err, code.ErrUnitNotFound))

	setFeature(t, f.settings, models.FeatureCalls911, false)
	_, err = f.svc.CreateCall(ctx, nil, CallInput{Location: "Paleto"})
	assert.True(t, code.Is(err, code.ErrFeatureDisabled))

	var n int64
	require.NoError(t, db.Model(&models.Call911{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestUpdateCallReconcilesUnits(t *testing.T) {
	ctx := context.Background()
	f, db := newCallFixture(t)
	a := seedOfficer(t, db, "1A-10", nil)
	b := seedOfficer(t, db, "1A-11", nil)
	c := seedDeputy(t, db, "M-1", nil)

	call, err := f.svc.CreateCall(ctx, nil, CallInput{Location: "Davis", AssignedUnits: []string{a.ID, b.ID}})
	require.NoError(t, err)

	updated, err := f.svc.UpdateCall(ctx, call.ID, CallInput{Location: "Davis Ave", AssignedUnits: []string{b.ID, c.ID}})
	require.NoError(t, err)
	assert.Equal(t, "Davis Ave", updated.Location)
	assert.ElementsMatch(t, []string{b.ID, c.ID}, assignedIDs(updated))
	assert.Nil(t, reloadOfficer(t, db, a.ID).ActiveCallID)

	var deputy models.EmsFdDeputy
	require.NoError(t, db.First(&deputy, "id = ?", c.ID).Error)
	assert.Equal(t, call.ID, *deputy.ActiveCallID)

	// one unknown id aborts the whole batch
	_, err = f.svc.UpdateCall(ctx, call.ID, CallInput{Location: "Davis Ave", AssignedUnits: []string{a.ID, "ghost"}})
	assert.True(t, code.Is(err, code.ErrUnitNotFound))
	current, err := f.svc.GetCall(ctx, call.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{b.ID, c.ID}, assignedIDs(current))

	// empty list clears the relation
	cleared, err := f.svc.UpdateCall(ctx, call.ID, CallInput{Location: "Davis Ave"})
	require.NoError(t, err)
	assert.Empty(t, cleared.AssignedUnits)
	assert.Nil(t, reloadOfficer(t, db, b.ID).ActiveCallID)
}

func TestAssignAndUnassignCallUnit(t *testing.T) {
	ctx := context.Background()
	f, db := newCallFixture(t)
	officer := seedOfficer(t, db, "1A-10", nil)
	call, err := f.svc.CreateCall(ctx, nil, CallInput{Location: "Vespucci"})
	require.NoError(t, err)

	_, err = f.svc.AssignUnit(ctx, call.ID, officer.ID)
	require.NoError(t, err)

	_, err = f.svc.AssignUnit(ctx, call.ID, officer.ID)
	assert.True(t, code.Is(err, code.ErrUnitAlreadyAssigned))

	var links int64
	require.NoError(t, db.Model(&models.AssignedUnit{}).Where("call911_id = ?", call.ID).Count(&links).Error)
	assert.Equal(t, int64(1), links)

	_, err = f.svc.UnassignUnit(ctx, call.ID, officer.ID)
	require.NoError(t, err)
	assert.Nil(t, reloadOfficer(t, db, officer.ID).ActiveCallID)

	_, err = f.svc.UnassignUnit(ctx, call.ID, officer.ID)
	assert.True(t, code.Is(err, code.ErrUnitNotAssigned))
}

func TestEndCallOnce(t *testing.T) {
	ctx := context.Background()
	f, db := newCallFixture(t)
	officer := seedOfficer(t, db, "1A-10", nil)
	call, err := f.svc.CreateCall(ctx, nil, CallInput{Location: "Rockford", AssignedUnits: []string{officer.ID}})
	require.NoError(t, err)

	ended, err := f.svc.EndCall(ctx, call.ID)
	require.NoError(t, err)
	assert.True(t, ended.Ended)
	assert.Nil(t, reloadOfficer(t, db, officer.ID).ActiveCallID)

	_, err = f.svc.EndCall(ctx, call.ID)
	assert.True(t, code.Is(err, code.ErrCallAlreadyEnded))
	assert.Equal(t, 1, f.broadcast.count(EventEnd911Call))

	_, err = f.svc.EndCall(ctx, "missing")
	assert.True(t, code.Is(err, code.ErrCallNotFound))

	_, err = f.svc.AssignUnit(ctx, call.ID, officer.ID)
	assert.True(t, code.Is(err, code.ErrCallAlreadyEnded))
}

func TestListCallsEndsStaleCalls(t *testing.T) {
	ctx := context.Background()
	f, db := newCallFixture(t)
	officer := seedOfficer(t, db, "1A-10", nil)

	stale, err := f.svc.CreateCall(ctx, nil, CallInput{Location: "Grove St", AssignedUnits: []string{officer.ID}})
	require.NoError(t, err)
	fresh, err := f.svc.CreateCall(ctx, nil, CallInput{Location: "Forum Dr"})
	require.NoError(t, err)
	age(t, db, &models.Call911{}, stale.ID, "updated_at", 45*time.Minute)

	// disabled timeout leaves everything active
	calls, err := f.svc.ListCalls(ctx, false)
	require.NoError(t, err)
	assert.Len(t, calls, 2)

	setTimeouts(t, f.settings, UpdateSettingsInput{CallInactivityTimeout: timeout(30)})

	calls, err = f.svc.ListCalls(ctx, false)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, fresh.ID, calls[0].ID)
	assert.Nil(t, reloadOfficer(t, db, officer.ID).ActiveCallID)

	all, err := f.svc.ListCalls(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAssignmentKeepsCallActive(t *testing.T) {
	ctx := context.Background()
	f, db := newCallFixture(t)
	officer := seedOfficer(t, db, "1A-10", nil)
	deputy := seedDeputy(t, db, "M-1", nil)

	assigned, err := f.svc.CreateCall(ctx, nil, CallInput{Location: "Paleto Bay"})
	require.NoError(t, err)
	released, err := f.svc.CreateCall(ctx, nil, CallInput{Location: "Chumash", AssignedUnits: []string{deputy.ID}})
	require.NoError(t, err)
	age(t, db, &models.Call911{}, assigned.ID, "updated_at", 30*time.Minute)
	age(t, db, &models.Call911{}, released.ID, "updated_at", 30*time.Minute)
	setTimeouts(t, f.settings, UpdateSettingsInput{CallInactivityTimeout: timeout(10)})

	_, err = f.svc.AssignUnit(ctx, assigned.ID, officer.ID)
	require.NoError(t, err)
	_, err = f.svc.UnassignUnit(ctx, released.ID, deputy.ID)
	require.NoError(t, err)

	calls, err := f.svc.ListCalls(ctx, false)
	require.NoError(t, err)
	ids := make([]string, 0, len(calls))
	for _, c := range calls {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{assigned.ID, released.ID}, ids)
	assert.Equal(t, assigned.ID, *reloadOfficer(t, db, officer.ID).ActiveCallID)
}

func TestDeleteCall(t *testing.T) {
	ctx := context.Background()
	f, db := newCallFixture(t)
	officer := seedOfficer(t, db, "1A-10", nil)
	call, err := f.svc.CreateCall(ctx, nil, CallInput{Location: "Chumash", AssignedUnits: []string{officer.ID}})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteCall(ctx, call.ID))
	assert.Nil(t, reloadOfficer(t, db, officer.ID).ActiveCallID)

	var links int64
	require.NoError(t, db.Model(&models.AssignedUnit{}).Count(&links).Error)
	assert.Zero(t, links)

	assert.True(t, code.Is(f.svc.DeleteCall(ctx, call.ID), code.ErrCallNotFound))
}

func assignedIDs(call *models.Call911) []string {
	ids := make([]string, 0, len(call.AssignedUnits))
	for _, au := range call.AssignedUnits {
		ids = append(ids, au.UnitID)
	}
	return ids
}
