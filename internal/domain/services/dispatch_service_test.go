package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/dispatch"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	perm "github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/permissions"
)

type dispatchFixture struct {
	svc       InterfaceDispatchService
	settings  InterfaceCadSettingsService
	units     InterfaceUnitService
	incidents InterfaceIncidentService
	broadcast *recorder
}

func newDispatchFixture(t *testing.T, wrapUnits func(InterfaceUnitService) InterfaceUnitService) (*dispatchFixture, *gorm.DB) {
	db := newTestDB(t)
	cfg := testConfig()
	f := &dispatchFixture{
		settings:  NewCadSettingsService(db, cfg, nil),
		broadcast: &recorder{},
	}
	f.units = NewUnitService(db, cfg, f.broadcast, &webhookRecorder{})
	if wrapUnits != nil {
		f.units = wrapUnits(f.units)
	}
	f.incidents = NewIncidentService(db, cfg, f.settings, f.broadcast)
	f.svc = NewDispatchService(db, cfg, f.settings, NewValueService(db, cfg), f.units, f.incidents, f.broadcast)
	return f, db
}

// failingUnits refuses to persist inactivity demotions
type failingUnits struct {
	InterfaceUnitService
}

func (failingUnits) SetOffDutyByInactivity(context.Context, *dispatch.InactivityFilter, *models.StatusValue) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestDispatchDataDemotesStaleUnits(t *testing.T) {
	ctx := context.Background()
	f, db := newDispatchFixture(t, nil)
	onDuty := seedStatus(t, db, "10-8", models.ShouldDoSetOnDuty)
	offDuty := seedStatus(t, db, "10-7", models.ShouldDoSetOffDuty)
	stale := seedOfficer(t, db, "1A-10", onDuty)
	fresh := seedDeputy(t, db, "M-1", onDuty)
	seedOfficer(t, db, "1A-11", offDuty)
	seedOfficer(t, db, "1A-12", nil)
	age(t, db, &models.Officer{}, stale.ID, "last_status_change_timestamp", 30*time.Minute)
	setTimeouts(t, f.settings, UpdateSettingsInput{UnitInactivityTimeout: timeout(10)})

	data, err := f.svc.GetDispatchData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Officers, 1)
	assert.Equal(t, offDuty.ID, *data.Officers[0].StatusID)
	require.Len(t, data.Deputies, 1)
	assert.Equal(t, fresh.ID, data.Deputies[0].ID)
	assert.Equal(t, onDuty.ID, *data.Deputies[0].StatusID)

	assert.Equal(t, offDuty.ID, *reloadOfficer(t, db, stale.ID).StatusID)

	// once persisted the unit drops off the board
	data, err = f.svc.GetDispatchData(ctx)
	require.NoError(t, err)
	assert.Empty(t, data.Officers)
}

func TestDispatchDataWithoutOffDutyStatus(t *testing.T) {
	ctx := context.Background()
	f, db := newDispatchFixture(t, nil)
	onDuty := seedStatus(t, db, "10-8", models.ShouldDoSetOnDuty)
	stale := seedOfficer(t, db, "1A-10", onDuty)
	age(t, db, &models.Officer{}, stale.ID, "last_status_change_timestamp", time.Hour)
	setTimeouts(t, f.settings, UpdateSettingsInput{UnitInactivityTimeout: timeout(10)})

	data, err := f.svc.GetDispatchData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Officers, 1)
	assert.Equal(t, onDuty.ID, *data.Officers[0].StatusID)
	assert.Equal(t, onDuty.ID, *reloadOfficer(t, db, stale.ID).StatusID)
}

func TestDispatchDataIgnoresFailedExpiry(t *testing.T) {
	ctx := context.Background()
	f, db := newDispatchFixture(t, func(u InterfaceUnitService) InterfaceUnitService {
		return failingUnits{u}
	})
	onDuty := seedStatus(t, db, "10-8", models.ShouldDoSetOnDuty)
	offDuty := seedStatus(t, db, "10-7", models.ShouldDoSetOffDuty)
	stale := seedOfficer(t, db, "1A-10", onDuty)
	age(t, db, &models.Officer{}, stale.ID, "last_status_change_timestamp", time.Hour)
	setTimeouts(t, f.settings, UpdateSettingsInput{UnitInactivityTimeout: timeout(10)})

	data, err := f.svc.GetDispatchData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Officers, 1)
	assert.Equal(t, offDuty.ID, *data.Officers[0].StatusID)
	assert.Equal(t, onDuty.ID, *reloadOfficer(t, db, stale.ID).StatusID)
}

func TestDispatchDataListsCombinedUnits(t *testing.T) {
	ctx := context.Background()
	f, db := newDispatchFixture(t, nil)
	onDuty := seedStatus(t, db, "10-8", models.ShouldDoSetOnDuty)
	a := seedOfficer(t, db, "1A-10", onDuty)
	b := seedOfficer(t, db, "1A-11", onDuty)
	solo := seedOfficer(t, db, "1A-12", onDuty)

	combined, err := f.units.CombineUnits(ctx, models.UnitKindOfficer, []string{a.ID, b.ID}, "")
	require.NoError(t, err)

	data, err := f.svc.GetDispatchData(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(data.Officers))
	for _, u := range data.Officers {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []string{solo.ID, combined.ID}, ids)
	for _, u := range data.Officers {
		if u.ID == combined.ID {
			assert.Len(t, u.Members, 2)
		}
	}
}

func TestDispatchDataDisbandsStaleCombinedUnit(t *testing.T) {
	ctx := context.Background()
	f, db := newDispatchFixture(t, nil)
	onDuty := seedStatus(t, db, "10-8", models.ShouldDoSetOnDuty)
	offDuty := seedStatus(t, db, "10-7", models.ShouldDoSetOffDuty)
	a := seedOfficer(t, db, "1A-10", onDuty)
	b := seedOfficer(t, db, "1A-11", onDuty)
	combined, err := f.units.CombineUnits(ctx, models.UnitKindOfficer, []string{a.ID, b.ID}, "")
	require.NoError(t, err)
	age(t, db, &models.CombinedLeoUnit{}, combined.ID, "last_status_change_timestamp", 30*time.Minute)
	setTimeouts(t, f.settings, UpdateSettingsInput{UnitInactivityTimeout: timeout(10)})

	_, err = f.svc.GetDispatchData(ctx)
	require.NoError(t, err)

	var rows int64
	require.NoError(t, db.Model(&models.CombinedLeoUnit{}).Count(&rows).Error)
	assert.Zero(t, rows)
	member := reloadOfficer(t, db, a.ID)
	assert.Nil(t, member.CombinedLeoUnitID)
	assert.Equal(t, offDuty.ID, *member.StatusID)

	// a member going back on duty shows up on the next read
	dispatcher := seedUser(t, db, "dispatcher", string(perm.Dispatch))
	_, err = f.units.SetUnitStatus(ctx, dispatcher, a.ID, onDuty.ID)
	require.NoError(t, err)

	data, err := f.svc.GetDispatchData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Officers, 1)
	assert.Equal(t, a.ID, data.Officers[0].ID)
}

func TestDispatchDataIncidents(t *testing.T) {
	ctx := context.Background()
	f, db := newDispatchFixture(t, nil)

	stale, err := f.incidents.CreateIncident(ctx, nil, IncidentInput{IsActive: true})
	require.NoError(t, err)
	fresh, err := f.incidents.CreateIncident(ctx, nil, IncidentInput{IsActive: true})
	require.NoError(t, err)
	age(t, db, &models.LeoIncident{}, stale.ID, "updated_at", 2*time.Hour)
	setTimeouts(t, f.settings, UpdateSettingsInput{IncidentInactivityTimeout: timeout(60)})

	data, err := f.svc.GetDispatchData(ctx)
	require.NoError(t, err)
	require.Len(t, data.ActiveIncidents, 1)
	assert.Equal(t, fresh.ID, data.ActiveIncidents[0].ID)

	ended, err := f.incidents.GetIncident(ctx, stale.ID)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)

	setFeature(t, f.settings, models.FeatureActiveIncidents, false)
	data, err = f.svc.GetDispatchData(ctx)
	require.NoError(t, err)
	assert.Empty(t, data.ActiveIncidents)
}

func TestActiveDispatchers(t *testing.T) {
	ctx := context.Background()
	f, db := newDispatchFixture(t, nil)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	list, err := f.svc.SetDispatchState(ctx, alice.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "alice", list[0].User.Username)

	// going active twice keeps one row
	list, err = f.svc.SetDispatchState(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.SetDispatchState(ctx, bob.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 3, f.broadcast.count(EventUpdateDispatchersState))

	var rows []models.ActiveDispatchers
	require.NoError(t, db.Find(&rows).Error)
	for _, r := range rows {
		if r.UserID == bob.ID {
			age(t, db, &models.ActiveDispatchers{}, r.ID, "updated_at", 2*time.Hour)
		}
	}
	setTimeouts(t, f.settings, UpdateSettingsInput{ActiveDispatchersInactivityTimeout: timeout(30)})

	data, err := f.svc.GetDispatchData(ctx)
	require.NoError(t, err)
	require.Len(t, data.ActiveDispatchers, 1)
	assert.Equal(t, alice.ID, data.ActiveDispatchers[0].UserID)

	var n int64
	require.NoError(t, db.Model(&models.ActiveDispatchers{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	list, err = f.svc.SetDispatchState(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatchStateFeatureDisabled(t *testing.T) {
	ctx := context.Background()
	f, db := newDispatchFixture(t, nil)
	user := seedUser(t, db, "carol")
	setFeature(t, f.settings, models.FeatureActiveDispatchers, false)

	list, err := f.svc.SetDispatchState(ctx, user.ID, true)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, f.broadcast.count(EventUpdateDispatchersState))

	var n int64
	require.NoError(t, db.Model(&models.ActiveDispatchers{}).Count(&n).Error)
	assert.Zero(t, n)

	data, err := f.svc.GetDispatchData(ctx)
	require.NoError(t, err)
	assert.Empty(t, data.ActiveDispatchers)
}

func TestDispatcherHeartbeat(t *testing.T) {
	ctx := context.Background()
	f, db := newDispatchFixture(t, nil)
	user := seedUser(t, db, "dave")

	_, err := f.svc.SetDispatchState(ctx, user.ID, true)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.ActiveDispatchers{}).Where("user_id = ?", user.ID).
		UpdateColumn("updated_at", time.Now().Add(-2*time.Hour)).Error)

	require.NoError(t, f.svc.Heartbeat(ctx, user.ID))
	setTimeouts(t, f.settings, UpdateSettingsInput{ActiveDispatchersInactivityTimeout: timeout(30)})

	data, err := f.svc.GetDispatchData(ctx)
	require.NoError(t, err)
	assert.Len(t, data.ActiveDispatchers, 1)
}
