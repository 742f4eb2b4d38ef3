package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
)

func TestTowAndTaxiCalls(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cfg := testConfig()
	settings := NewCadSettingsService(db, cfg, nil)
	broadcast := &recorder{}
	svc := NewTowService(db, cfg, settings, broadcast)
	driver := seedCitizen(t, db, "Franklin", "Clinton")

	tow, err := svc.CreateCall(ctx, CallKindTow, nil, TowCallInput{Location: "Strawberry", Description: "Broken down"})
	require.NoError(t, err)
	taxi, err := svc.CreateCall(ctx, CallKindTaxi, nil, TowCallInput{Location: "LSIA"})
	require.NoError(t, err)
	assert.Equal(t, 1, broadcast.count(EventCreateTowCall))
	assert.Equal(t, 1, broadcast.count(EventCreateTaxiCall))

	tows, err := svc.ListCalls(ctx, CallKindTow, false)
	require.NoError(t, err)
	require.Len(t, tows, 1)
	assert.Equal(t, tow.ID, tows[0].ID)

	taxis, err := svc.ListCalls(ctx, CallKindTaxi, false)
	require.NoError(t, err)
	require.Len(t, taxis, 1)
	assert.Equal(t, taxi.ID, taxis[0].ID)

	assigned, err := svc.AssignCitizen(ctx, CallKindTaxi, taxi.ID, driver.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedUnit)
	assert.Equal(t, "Franklin", assigned.AssignedUnit.Name)

	_, err = svc.AssignCitizen(ctx, CallKindTaxi, taxi.ID, "nobody")
	assert.True(t, code.Is(err, code.ErrCitizenNotFound))

	unassigned, err := svc.AssignCitizen(ctx, CallKindTaxi, taxi.ID, "")
	require.NoError(t, err)
	assert.Nil(t, unassigned.AssignedUnitID)

	_, err = svc.EndCall(ctx, CallKindTow, tow.ID)
	require.NoError(t, err)
	_, err = svc.EndCall(ctx, CallKindTow, tow.ID)
	assert.True(t, code.Is(err, code.ErrCallAlreadyEnded))
	assert.Equal(t, 1, broadcast.count(EventEndTowCall))

	_, err = svc.UpdateCall(ctx, CallKindTow, tow.ID, TowCallInput{Location: "Elsewhere"})
	assert.True(t, code.Is(err, code.ErrCallAlreadyEnded))

	// a tow id is not a taxi id
	_, err = svc.EndCall(ctx, CallKindTaxi, tow.ID)
	assert.True(t, code.Is(err, code.ErrCallNotFound))

	_, err = svc.ListCalls(ctx, CallKind("boat"), false)
	assert.True(t, code.Is(err, code.ErrInvalidCallKind))
}

func TestTowFeatureAndExpiry(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cfg := testConfig()
	settings := NewCadSettingsService(db, cfg, nil)
	svc := NewTowService(db, cfg, settings, &recorder{})

	old, err := svc.CreateCall(ctx, CallKindTaxi, nil, TowCallInput{Location: "Del Perro"})
	require.NoError(t, err)
	age(t, db, &models.TaxiCall{}, old.ID, "updated_at", 2*time.Hour)
	setTimeouts(t, settings, UpdateSettingsInput{CallInactivityTimeout: timeout(60)})

	active, err := svc.ListCalls(ctx, CallKindTaxi, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	setFeature(t, settings, models.FeatureTaxi, false)
	_, err = svc.CreateCall(ctx, CallKindTaxi, nil, TowCallInput{Location: "Del Perro"})
	assert.True(t, code.Is(err, code.ErrFeatureDisabled))

	_, err = svc.CreateCall(ctx, CallKindTow, nil, TowCallInput{Location: "Del Perro"})
	assert.NoError(t, err)
}
