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

type warrantFixture struct {
	svc      InterfaceWarrantService
	settings InterfaceCadSettingsService
	webhook  *webhookRecorder
	citizen  *models.Citizen
}

func newWarrantFixture(t *testing.T) (*warrantFixture, *gorm.DB) {
	db := newTestDB(t)
	cfg := testConfig()
	f := &warrantFixture{
		settings: NewCadSettingsService(db, cfg, nil),
		webhook:  &webhookRecorder{},
		citizen:  seedCitizen(t, db, "Trevor", "Philips"),
	}
	f.svc = NewWarrantService(db, cfg, f.settings, &recorder{}, f.webhook)
	return f, db
}

func TestCreateWarrantWithoutApproval(t *testing.T) {
	ctx := context.Background()
	f, db := newWarrantFixture(t)
	officer := seedOfficer(t, db, "1A-10", nil)

	w, err := f.svc.CreateWarrant(ctx, WarrantInput{
		CitizenID:        f.citizen.ID,
		Description:      "Grand theft auto",
		Status:           models.WarrantStatusActive,
		AssignedOfficers: []string{officer.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, models.WarrantStatusActive, w.Status)
	assert.Equal(t, models.WarrantApprovalAccepted, w.ApprovalStatus)
	require.Len(t, w.AssignedOfficers, 1)
	assert.Empty(t, f.webhook.types())

	_, err = f.svc.CreateWarrant(ctx, WarrantInput{CitizenID: "nobody", Status: models.WarrantStatusActive})
	assert.True(t, code.Is(err, code.ErrCitizenNotFound))

	_, err = f.svc.CreateWarrant(ctx, WarrantInput{CitizenID: f.citizen.ID, Status: "WANTED"})
	assert.True(t, code.Is(err, code.ErrValidation))
}

func TestWarrantApprovalFlow(t *testing.T) {
	ctx := context.Background()
	f, _ := newWarrantFixture(t)
	setFeature(t, f.settings, models.FeatureWarrantStatusApproval, true)

	w, err := f.svc.CreateWarrant(ctx, WarrantInput{CitizenID: f.citizen.ID, Description: "Arson", Status: models.WarrantStatusActive})
	assert.True(t, code.Is(err, code.ErrWarrantApprovalRequired))
	require.NotNil(t, w)
	assert.Equal(t, models.WarrantStatusInactive, w.Status)
	assert.Equal(t, models.WarrantApprovalPending, w.ApprovalStatus)
	assert.Equal(t, []WebhookType{WebhookWarrant}, f.webhook.types())
	assert.Equal(t, code.StatusAccepted, code.GetStatus(code.From(err).Code))

	// asking again while pending keeps it inactive
	again, err := f.svc.UpdateWarrant(ctx, w.ID, WarrantInput{CitizenID: f.citizen.ID, Description: "Arson", Status: models.WarrantStatusActive})
	assert.True(t, code.Is(err, code.ErrWarrantApprovalRequired))
	assert.Equal(t, models.WarrantStatusInactive, again.Status)

	accepted, err := f.svc.ReviewWarrant(ctx, w.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.WarrantStatusActive, accepted.Status)
	assert.Equal(t, models.WarrantApprovalAccepted, accepted.ApprovalStatus)

	_, err = f.svc.ReviewWarrant(ctx, w.ID, false)
	assert.True(t, code.Is(err, code.ErrWarrantNotPending))

	_, err = f.svc.ReviewWarrant(ctx, "missing", true)
	assert.True(t, code.Is(err, code.ErrWarrantNotFound))

	// accepted warrants toggle freely
	off, err := f.svc.UpdateWarrant(ctx, w.ID, WarrantInput{CitizenID: f.citizen.ID, Status: models.WarrantStatusInactive})
	require.NoError(t, err)
	assert.Equal(t, models.WarrantStatusInactive, off.Status)
	on, err := f.svc.UpdateWarrant(ctx, w.ID, WarrantInput{CitizenID: f.citizen.ID, Status: models.WarrantStatusActive})
	require.NoError(t, err)
	assert.Equal(t, models.WarrantStatusActive, on.Status)
}

func TestDeclinedWarrantStaysInactive(t *testing.T) {
	ctx := context.Background()
	f, _ := newWarrantFixture(t)
	setFeature(t, f.settings, models.FeatureWarrantStatusApproval, true)

	inactive, err := f.svc.CreateWarrant(ctx, WarrantInput{CitizenID: f.citizen.ID, Status: models.WarrantStatusInactive})
	require.NoError(t, err)
	assert.Equal(t, models.WarrantApprovalPending, inactive.ApprovalStatus)
	assert.Empty(t, f.webhook.types())

	declined, err := f.svc.ReviewWarrant(ctx, inactive.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.WarrantStatusInactive, declined.Status)
	assert.Equal(t, models.WarrantApprovalDeclined, declined.ApprovalStatus)

	// a declined warrant goes back into review when activated
	w, err := f.svc.UpdateWarrant(ctx, inactive.ID, WarrantInput{CitizenID: f.citizen.ID, Status: models.WarrantStatusActive})
	assert.True(t, code.Is(err, code.ErrWarrantApprovalRequired))
	assert.Equal(t, models.WarrantApprovalPending, w.ApprovalStatus)
}

func TestUpdateWarrantOfficers(t *testing.T) {
	ctx := context.Background()
	f, db := newWarrantFixture(t)
	a := seedOfficer(t, db, "1A-10", nil)
	b := seedOfficer(t, db, "1A-11", nil)

	w, err := f.svc.CreateWarrant(ctx, WarrantInput{CitizenID: f.citizen.ID, Status: models.WarrantStatusActive, AssignedOfficers: []string{a.ID}})
	require.NoError(t, err)

	updated, err := f.svc.UpdateWarrant(ctx, w.ID, WarrantInput{CitizenID: f.citizen.ID, Status: models.WarrantStatusActive, AssignedOfficers: []string{b.ID}})
	require.NoError(t, err)
	require.Len(t, updated.AssignedOfficers, 1)
	assert.Equal(t, b.ID, updated.AssignedOfficers[0].UnitID)

	_, err = f.svc.UpdateWarrant(ctx, w.ID, WarrantInput{CitizenID: f.citizen.ID, Status: models.WarrantStatusActive, AssignedOfficers: []string{"ghost"}})
	assert.True(t, code.Is(err, code.ErrUnitNotFound))

	require.NoError(t, f.svc.DeleteWarrant(ctx, w.ID))
	var links int64
	require.NoError(t, db.Model(&models.WarrantAssignedOfficer{}).Count(&links).Error)
	assert.Zero(t, links)
	assert.True(t, code.Is(f.svc.DeleteWarrant(ctx, w.ID), code.ErrWarrantNotFound))
}

func TestListWarrantsExpiresStale(t *testing.T) {
	ctx := context.Background()
	f, db := newWarrantFixture(t)

	stale, err := f.svc.CreateWarrant(ctx, WarrantInput{CitizenID: f.citizen.ID, Status: models.WarrantStatusActive})
	require.NoError(t, err)
	fresh, err := f.svc.CreateWarrant(ctx, WarrantInput{CitizenID: f.citizen.ID, Status: models.WarrantStatusActive})
	require.NoError(t, err)
	age(t, db, &models.Warrant{}, stale.ID, "updated_at", 48*time.Hour)

	active, err := f.svc.ListWarrants(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	setTimeouts(t, f.settings, UpdateSettingsInput{ActiveWarrantsInactivityTimeout: timeout(24 * 60)})
	active, err = f.svc.ListWarrants(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fresh.ID, active[0].ID)

	all, err := f.svc.ListWarrants(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
