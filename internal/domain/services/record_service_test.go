package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
)

func TestUpsertRecord(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewRecordService(db, testConfig())
	citizen := seedCitizen(t, db, "Ron", "Jakowski")
	speeding := seedValue(t, db, models.ValueTypePenalCode, "Speeding")
	theft := seedValue(t, db, models.ValueTypePenalCode, "Theft")
	flag := seedValue(t, db, models.ValueTypeFlag, "Armed")
	officer := strPtr("officer-1")

	record, err := svc.UpsertRecord(ctx, "", officer, RecordInput{
		CitizenID:  citizen.ID,
		Type:       models.RecordTypeTicket,
		Notes:      "Route 68",
		Violations: []ViolationInput{{PenalCodeID: speeding.ID, Fine: intPtr(250)}},
	})
	require.NoError(t, err)
	require.Len(t, record.Violations, 1)
	require.NotNil(t, record.Violations[0].PenalCode)
	assert.Equal(t, "Speeding", record.Violations[0].PenalCode.Value)
	assert.Equal(t, 250, *record.Violations[0].Fine)

	updated, err := svc.UpsertRecord(ctx, record.ID, officer, RecordInput{
		CitizenID:  citizen.ID,
		Type:       models.RecordTypeArrestReport,
		Violations: []ViolationInput{{PenalCodeID: theft.ID, JailTime: intPtr(30)}, {PenalCodeID: speeding.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RecordTypeArrestReport, updated.Type)
	assert.Len(t, updated.Violations, 2)

	// a value of another type is not a penal code; the update rolls back
	_, err = svc.UpsertRecord(ctx, record.ID, officer, RecordInput{
		CitizenID:  citizen.ID,
		Type:       models.RecordTypeWrittenWarning,
		Violations: []ViolationInput{{PenalCodeID: speeding.ID}, {PenalCodeID: flag.ID}},
	})
	assert.True(t, code.Is(err, code.ErrPenalCodeNotFound))

	list, err := svc.GetCitizenRecords(ctx, citizen.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.RecordTypeArrestReport, list[0].Type)
	assert.Len(t, list[0].Violations, 2)

	_, err = svc.UpsertRecord(ctx, "", officer, RecordInput{CitizenID: citizen.ID, Type: "PARKING"})
	assert.True(t, code.Is(err, code.ErrInvalidRecordType))
	_, err = svc.UpsertRecord(ctx, "", officer, RecordInput{CitizenID: "missing", Type: models.RecordTypeTicket})
	assert.True(t, code.Is(err, code.ErrCitizenNotFound))
	_, err = svc.UpsertRecord(ctx, "missing", officer, RecordInput{CitizenID: citizen.ID, Type: models.RecordTypeTicket})
	assert.True(t, code.Is(err, code.ErrCadRecordNotFound))
}

func TestCreateRecordRollsBackOnBadPenalCode(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewRecordService(db, testConfig())
	citizen := seedCitizen(t, db, "Floyd", "Hebert")
	speeding := seedValue(t, db, models.ValueTypePenalCode, "Speeding")

	_, err := svc.UpsertRecord(ctx, "", nil, RecordInput{
		CitizenID:  citizen.ID,
		Type:       models.RecordTypeTicket,
		Violations: []ViolationInput{{PenalCodeID: speeding.ID}, {PenalCodeID: "missing"}},
	})
	assert.True(t, code.Is(err, code.ErrPenalCodeNotFound))

	for _, model := range []interface{}{&models.Record{}, &models.Violation{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestDeleteRecord(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewRecordService(db, testConfig())
	citizen := seedCitizen(t, db, "Dave", "Norton")
	speeding := seedValue(t, db, models.ValueTypePenalCode, "Speeding")

	record, err := svc.UpsertRecord(ctx, "", nil, RecordInput{
		CitizenID:  citizen.ID,
		Type:       models.RecordTypeWrittenWarning,
		Violations: []ViolationInput{{PenalCodeID: speeding.ID}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecord(ctx, record.ID))
	var n int64
	require.NoError(t, db.Model(&models.Violation{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.True(t, code.Is(svc.DeleteRecord(ctx, record.ID), code.ErrCadRecordNotFound))

	_, err = svc.GetCitizenRecords(ctx, "missing")
	assert.True(t, code.Is(err, code.ErrCitizenNotFound))
}
