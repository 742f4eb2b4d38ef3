package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
)

func TestValues(t *testing.T) {
	ctx := context.Background()
	svc := NewValueService(newTestDB(t), testConfig())

	second, err := svc.CreateValue(ctx, models.ValueTypePenalCode, ValueInput{Value: "Theft", Position: 2})
	require.NoError(t, err)
	_, err = svc.CreateValue(ctx, models.ValueTypePenalCode, ValueInput{Value: "Speeding", Position: 1})
	require.NoError(t, err)
	_, err = svc.CreateValue(ctx, models.ValueTypeFlag, ValueInput{Value: "Armed"})
	require.NoError(t, err)

	codes, err := svc.ListValues(ctx, models.ValueTypePenalCode)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, "Speeding", codes[0].Value)

	_, err = svc.ListValues(ctx, models.ValueType("COLOR"))
	assert.True(t, code.Is(err, code.ErrInvalidValueType))
	_, err = svc.CreateValue(ctx, models.ValueTypeFlag, ValueInput{Value: " "})
	assert.True(t, code.Is(err, code.ErrValidation))

	updated, err := svc.UpdateValue(ctx, models.ValueTypePenalCode, second.ID, ValueInput{Value: "Grand theft", Position: 0})
	require.NoError(t, err)
	assert.Equal(t, "Grand theft", updated.Value)

	// the type is part of the lookup
	_, err = svc.UpdateValue(ctx, models.ValueTypeFlag, second.ID, ValueInput{Value: "x"})
	assert.True(t, code.Is(err, code.ErrValueNotFound))
	assert.True(t, code.Is(svc.DeleteValue(ctx, models.ValueTypeFlag, second.ID), code.ErrValueNotFound))

	require.NoError(t, svc.DeleteValue(ctx, models.ValueTypePenalCode, second.ID))
	assert.True(t, code.Is(svc.DeleteValue(ctx, models.ValueTypePenalCode, second.ID), code.ErrValueNotFound))
}

func TestStatusValues(t *testing.T) {
	ctx := context.Background()
	svc := NewValueService(newTestDB(t), testConfig())

	off, err := svc.GetOffDutyStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, off)

	_, err = svc.CreateStatusValue(ctx, StatusValueInput{Value: "10-42", ShouldDo: "GO_HOME"})
	assert.True(t, code.Is(err, code.ErrInvalidShouldDo))

	late, err := svc.CreateStatusValue(ctx, StatusValueInput{Value: "10-42", ShouldDo: models.ShouldDoSetOffDuty, Position: 5})
	require.NoError(t, err)
	assert.Equal(t, models.StatusValueTypeStatusCode, late.Type)
	first, err := svc.CreateStatusValue(ctx, StatusValueInput{Value: "10-7", ShouldDo: models.ShouldDoSetOffDuty, Position: 1})
	require.NoError(t, err)

	// lowest position wins
	off, err = svc.GetOffDutyStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, off)
	assert.Equal(t, first.ID, off.ID)

	updated, err := svc.UpdateStatusValue(ctx, first.ID, StatusValueInput{Value: "10-8", ShouldDo: models.ShouldDoSetOnDuty})
	require.NoError(t, err)
	assert.Equal(t, models.ShouldDoSetOnDuty, updated.ShouldDo)

	off, err = svc.GetOffDutyStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, late.ID, off.ID)

	all, err := svc.ListStatusValues(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.DeleteStatusValue(ctx, late.ID))
	assert.True(t, code.Is(svc.DeleteStatusValue(ctx, late.ID), code.ErrStatusNotFound))
	_, err = svc.UpdateStatusValue(ctx, late.ID, StatusValueInput{Value: "x", ShouldDo: models.ShouldDoSetStatus})
	assert.True(t, code.Is(err, code.ErrStatusNotFound))
}
