package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
)

type ViolationInput struct {
	PenalCodeID string `json:"penalCodeId" binding:"required"`
	Fine        *int   `json:"fine"`
	JailTime    *int   `json:"jailTime"`
	Bail        *int   `json:"bail"`
}

type RecordInput struct {
	CitizenID  string            `json:"citizenId" binding:"required"`
	Type       models.RecordType `json:"type" binding:"required"`
	Postal     string            `json:"postal"`
	Notes      string            `json:"notes"`
	Violations []ViolationInput  `json:"violations"`
}

// InterfaceRecordService defines the citizen record service interface
type InterfaceRecordService interface {
	UpsertRecord(ctx context.Context, id string, officerID *string, in RecordInput) (*models.Record, error)
	GetCitizenRecords(ctx context.Context, citizenID string) ([]models.Record, error)
	DeleteRecord(ctx context.Context, id string) error
}

type RecordService struct {
	DB     *gorm.DB
	Config *config.Config
}

func NewRecordService(db *gorm.DB, cfg *config.Config) InterfaceRecordService {
	return &RecordService{
		DB:     db,
		Config: cfg,
	}
}

// 1. UpsertRecord creates the record when id is empty and updates it
// otherwise. Violations are replaced; one bad penal code rolls back the
// whole record.
func (s *RecordService) UpsertRecord(ctx context.Context, id string, officerID *string, in RecordInput) (*models.Record, error) {
	if !in.Type.Valid() {
		return nil, code.New(code.ErrInvalidRecordType)
	}

	var record models.Record
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCitizen(tx, in.CitizenID); err != nil {
			return err
		}

		if id == "" {
			record = models.Record{
				CitizenID: in.CitizenID,
				OfficerID: officerID,
				Type:      in.Type,
				Postal:    in.Postal,
				Notes:     in.Notes,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		} else {
			if err := tx.First(&record, "id = ?", id).Error; err != nil {
				return dbErr(err, code.ErrCadRecordNotFound)
			}
			err := tx.Model(&record).Updates(map[string]interface{}{
				"citizen_id": in.CitizenID,
				"type":       in.Type,
				"postal":     in.Postal,
				"notes":      in.Notes,
			}).Error
			if err != nil {
				return err
			}
			if err := tx.Where("record_id = ?", record.ID).Delete(&models.Violation{}).Error; err != nil {
				return err
			}
		}

		for _, v := range in.Violations {
			var n int64
			err := tx.Model(&models.Value{}).Where("id = ? AND type = ?", v.PenalCodeID, models.ValueTypePenalCode).Count(&n).Error
			if err != nil {
				return err
			}
			if n == 0 {
				return code.Newf(code.ErrPenalCodeNotFound, "penal code %s does not exist", v.PenalCodeID)
			}
			violation := models.Violation{
				RecordID:    record.ID,
				PenalCodeID: v.PenalCodeID,
				Fine:        v.Fine,
				JailTime:    v.JailTime,
				Bail:        v.Bail,
			}
			if err := tx.Create(&violation).Error; err != nil {
				return err
			}
		}

		return tx.Preload("Violations.PenalCode").First(&record, "id = ?", record.ID).Error
	})
	if err != nil {
		return nil, dbErr(err, code.ErrCadRecordNotFound)
	}
	return &record, nil
}

// 2. GetCitizenRecords lists a citizen's records
func (s *RecordService) GetCitizenRecords(ctx context.Context, citizenID string) ([]models.Record, error) {
	db := s.DB.WithContext(ctx)
	if err := checkCitizen(db, citizenID); err != nil {
		return nil, dbErr(err, code.ErrCitizenNotFound)
	}

	var records []models.Record
	err := db.Preload("Violations.PenalCode").Where("citizen_id = ?", citizenID).Order("created_at DESC").Find(&records).Error
	if err != nil {
		return nil, dbErr(err, code.ErrCadRecordNotFound)
	}
	return records, nil
}

// 3. DeleteRecord deletes a record
func (s *RecordService) DeleteRecord(ctx context.Context, id string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Record{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return code.New(code.ErrCadRecordNotFound)
		}
		return tx.Where("record_id = ?", id).Delete(&models.Violation{}).Error
	})
	return dbErr(err, code.ErrCadRecordNotFound)
}
