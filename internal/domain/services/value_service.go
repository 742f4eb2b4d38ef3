package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
)

type ValueInput struct {
	Value       string `json:"value" binding:"required"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

type StatusValueInput struct {
	Value    string                 `json:"value" binding:"required"`
	ShouldDo models.ShouldDo        `json:"shouldDo" binding:"required"`
	Type     models.StatusValueType `json:"type"`
	Color    string                 `json:"color"`
	Position int                    `json:"position"`
}

// InterfaceValueService defines the admin value service interface
type InterfaceValueService interface {
	ListValues(ctx context.Context, typ models.ValueType) ([]models.Value, error)
	CreateValue(ctx context.Context, typ models.ValueType, in ValueInput) (*models.Value, error)
	UpdateValue(ctx context.Context, typ models.ValueType, id string, in ValueInput) (*models.Value, error)
	DeleteValue(ctx context.Context, typ models.ValueType, id string) error
	ListStatusValues(ctx context.Context) ([]models.StatusValue, error)
	CreateStatusValue(ctx context.Context, in StatusValueInput) (*models.StatusValue, error)
	UpdateStatusValue(ctx context.Context, id string, in StatusValueInput) (*models.StatusValue, error)
	DeleteStatusValue(ctx context.Context, id string) error
	GetOffDutyStatus(ctx context.Context) (*models.StatusValue, error)
}

// ValueService manages flags, departments, penal codes and 10-codes
type ValueService struct {
	DB     *gorm.DB
	Config *config.Config
}

func NewValueService(db *gorm.DB, cfg *config.Config) InterfaceValueService {
	return &ValueService{
		DB:     db,
		Config: cfg,
	}
}

// 1. ListValues lists the values of one type
func (s *ValueService) ListValues(ctx context.Context, typ models.ValueType) ([]models.Value, error) {
	if !typ.Valid() {
		return nil, code.New(code.ErrInvalidValueType)
	}
	values := []models.Value{}
	err := s.DB.WithContext(ctx).Where("type = ?", typ).Order("position").Order("created_at").Find(&values).Error
	return values, dbErr(err, code.ErrValueNotFound)
}

// 2. CreateValue adds a value
func (s *ValueService) CreateValue(ctx context.Context, typ models.ValueType, in ValueInput) (*models.Value, error) {
	if !typ.Valid() {
		return nil, code.New(code.ErrInvalidValueType)
	}
	if strings.TrimSpace(in.Value) == "" {
		return nil, code.Newf(code.ErrValidation, "value is required")
	}

	value := models.Value{Type: typ, Value: in.Value, Description: in.Description, Position: in.Position}
	if err := s.DB.WithContext(ctx).Create(&value).Error; err != nil {
		return nil, dbErr(err, code.ErrValueNotFound)
	}
	return &value, nil
}

// 3. UpdateValue updates a value
func (s *ValueService) UpdateValue(ctx context.Context, typ models.ValueType, id string, in ValueInput) (*models.Value, error) {
	var value models.Value
	db := s.DB.WithContext(ctx)
	if err := db.Where("id = ? AND type = ?", id, typ).First(&value).Error; err != nil {
		return nil, dbErr(err, code.ErrValueNotFound)
	}

	err := db.Model(&value).Updates(map[string]interface{}{
		"value":       in.Value,
		"description": in.Description,
		"position":    in.Position,
	}).Error
	if err != nil {
		return nil, dbErr(err, code.ErrValueNotFound)
	}
	return &value, dbErr(db.First(&value, "id = ?", id).Error, code.ErrValueNotFound)
}

// 4. DeleteValue deletes a value
func (s *ValueService) DeleteValue(ctx context.Context, typ models.ValueType, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ? AND type = ?", id, typ).Delete(&models.Value{})
	if res.Error != nil {
		return dbErr(res.Error, code.ErrValueNotFound)
	}
	if res.RowsAffected == 0 {
		return code.New(code.ErrValueNotFound)
	}
	return nil
}

// 5. ListStatusValues lists every status code
func (s *ValueService) ListStatusValues(ctx context.Context) ([]models.StatusValue, error) {
	var values []models.StatusValue
	err := s.DB.WithContext(ctx).Order("position").Order("created_at").Find(&values).Error
	return values, dbErr(err, code.ErrStatusNotFound)
}

// 6. CreateStatusValue adds a status code
func (s *ValueService) CreateStatusValue(ctx context.Context, in StatusValueInput) (*models.StatusValue, error) {
	if err := validateStatusInput(&in); err != nil {
		return nil, err
	}

	status := models.StatusValue{
		Value:    in.Value,
		ShouldDo: in.ShouldDo,
		Type:     in.Type,
		Color:    in.Color,
		Position: in.Position,
	}
	if err := s.DB.WithContext(ctx).Create(&status).Error; err != nil {
		return nil, dbErr(err, code.ErrStatusNotFound)
	}
	return &status, nil
}

// 7. UpdateStatusValue updates a status code
func (s *ValueService) UpdateStatusValue(ctx context.Context, id string, in StatusValueInput) (*models.StatusValue, error) {
	if err := validateStatusInput(&in); err != nil {
		return nil, err
	}

	var status models.StatusValue
	db := s.DB.WithContext(ctx)
	if err := db.First(&status, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, code.ErrStatusNotFound)
	}

	err := db.Model(&status).Updates(map[string]interface{}{
		"value":     in.Value,
		"should_do": in.ShouldDo,
		"type":      in.Type,
		"color":     in.Color,
		"position":  in.Position,
	}).Error
	if err != nil {
		return nil, dbErr(err, code.ErrStatusNotFound)
	}
	return &status, dbErr(db.First(&status, "id = ?", id).Error, code.ErrStatusNotFound)
}

// 8. DeleteStatusValue deletes a status code
func (s *ValueService) DeleteStatusValue(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.StatusValue{}, "id = ?", id)
	if res.Error != nil {
		return dbErr(res.Error, code.ErrStatusNotFound)
	}
	if res.RowsAffected == 0 {
		return code.New(code.ErrStatusNotFound)
	}
	return nil
}

// 9. GetOffDutyStatus returns nil, not an error, when no code sets units off duty
func (s *ValueService) GetOffDutyStatus(ctx context.Context) (*models.StatusValue, error) {
	return findStatusByShouldDo(s.DB.WithContext(ctx), models.ShouldDoSetOffDuty)
}

// findStatusByShouldDo picks the lowest positioned code for an action
func findStatusByShouldDo(db *gorm.DB, shouldDo models.ShouldDo) (*models.StatusValue, error) {
	var statuses []models.StatusValue
	err := db.Where("should_do = ?", shouldDo).Order("position").Order("created_at").Limit(1).Find(&statuses).Error
	if err != nil {
		return nil, dbErr(err, code.ErrStatusNotFound)
	}
	if len(statuses) == 0 {
		return nil, nil
	}
	return &statuses[0], nil
}

func validateStatusInput(in *StatusValueInput) error {
	if strings.TrimSpace(in.Value) == "" {
		return code.Newf(code.ErrValidation, "value is required")
	}
	if !in.ShouldDo.Valid() {
		return code.New(code.ErrInvalidShouldDo)
	}
	if in.Type == "" {
		in.Type = models.StatusValueTypeStatusCode
	}
	if in.Type != models.StatusValueTypeStatusCode && in.Type != models.StatusValueTypeSituationCode {
		return code.New(code.ErrInvalidValueType)
	}
	return nil
}
