package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/dispatch"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
)

type CitizenInput struct {
	Name        string    `json:"name" binding:"required"`
	Surname     string    `json:"surname" binding:"required"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Address     string    `json:"address"`
}

type VehicleInput struct {
	CitizenID string `json:"citizenId" binding:"required"`
	Plate     string `json:"plate" binding:"required"`
	Model     string `json:"model"`
	Color     string `json:"color"`
}

type WeaponInput struct {
	CitizenID    string `json:"citizenId" binding:"required"`
	SerialNumber string `json:"serialNumber" binding:"required"`
	Model        string `json:"model"`
}

// InterfaceCitizenService defines the citizen service interface
type InterfaceCitizenService interface {
	ListCitizens(ctx context.Context, userID *string) ([]models.Citizen, error)
	GetCitizen(ctx context.Context, id string) (*models.Citizen, error)
	CreateCitizen(ctx context.Context, userID *string, in CitizenInput) (*models.Citizen, error)
	UpdateCitizen(ctx context.Context, id string, in CitizenInput) (*models.Citizen, error)
	DeleteCitizen(ctx context.Context, id string) error
	UpdateCitizenFlags(ctx context.Context, id string, flagIDs []string) (*models.Citizen, error)
	RegisterVehicle(ctx context.Context, in VehicleInput) (*models.RegisteredVehicle, error)
	DeleteVehicle(ctx context.Context, id string) error
	UpdateVehicleFlags(ctx context.Context, id string, flagIDs []string) (*models.RegisteredVehicle, error)
	RegisterWeapon(ctx context.Context, in WeaponInput) (*models.Weapon, error)
	DeleteWeapon(ctx context.Context, id string) error
}

type CitizenService struct {
	DB     *gorm.DB
	Config *config.Config
}

func NewCitizenService(db *gorm.DB, cfg *config.Config) InterfaceCitizenService {
	return &CitizenService{
		DB:     db,
		Config: cfg,
	}
}

// 1. ListCitizens lists the user's citizens, or every citizen when userID is nil
func (s *CitizenService) ListCitizens(ctx context.Context, userID *string) ([]models.Citizen, error) {
	var citizens []models.Citizen
	query := s.DB.WithContext(ctx).Preload("Flags").Order("surname").Order("name")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if err := query.Find(&citizens).Error; err != nil {
		return nil, dbErr(err, code.ErrCitizenNotFound)
	}
	return citizens, nil
}

// 2. GetCitizen loads a citizen
func (s *CitizenService) GetCitizen(ctx context.Context, id string) (*models.Citizen, error) {
	return findCitizen(s.DB.WithContext(ctx), id)
}

// 3. CreateCitizen creates a citizen
func (s *CitizenService) CreateCitizen(ctx context.Context, userID *string, in CitizenInput) (*models.Citizen, error) {
	if err := validateCitizenInput(in); err != nil {
		return nil, err
	}

	citizen := models.Citizen{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Surname:     strings.TrimSpace(in.Surname),
		DateOfBirth: in.DateOfBirth,
		Address:     in.Address,
	}
	if err := s.DB.WithContext(ctx).Create(&citizen).Error; err != nil {
		return nil, dbErr(err, code.ErrCitizenNotFound)
	}
	return &citizen, nil
}

// 4. UpdateCitizen updates a citizen
func (s *CitizenService) UpdateCitizen(ctx context.Context, id string, in CitizenInput) (*models.Citizen, error) {
	if err := validateCitizenInput(in); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	res := db.Model(&models.Citizen{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":          strings.TrimSpace(in.Name),
		"surname":       strings.TrimSpace(in.Surname),
		"date_of_birth": in.DateOfBirth,
		"address":       in.Address,
	})
	if res.Error != nil {
		return nil, dbErr(res.Error, code.ErrCitizenNotFound)
	}
	if res.RowsAffected == 0 {
		return nil, code.New(code.ErrCitizenNotFound)
	}
	return findCitizen(db, id)
}

// 5. DeleteCitizen removes the citizen with its vehicles, weapons, records and warrants
func (s *CitizenService) DeleteCitizen(ctx context.Context, id string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		citizen, err := findCitizen(tx, id)
		if err != nil {
			return err
		}
		for i := range citizen.Vehicles {
			if err := tx.Model(&citizen.Vehicles[i]).Association("Flags").Clear(); err != nil {
				return err
			}
		}
		if err := tx.Where("citizen_id = ?", id).Delete(&models.RegisteredVehicle{}).Error; err != nil {
			return err
		}
		if err := tx.Where("citizen_id = ?", id).Delete(&models.Weapon{}).Error; err != nil {
			return err
		}

		records := tx.Model(&models.Record{}).Select("id").Where("citizen_id = ?", id)
		if err := tx.Where("record_id IN (?)", records).Delete(&models.Violation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("citizen_id = ?", id).Delete(&models.Record{}).Error; err != nil {
			return err
		}

		warrants := tx.Model(&models.Warrant{}).Select("id").Where("citizen_id = ?", id)
		if err := tx.Where("warrant_id IN (?)", warrants).Delete(&models.WarrantAssignedOfficer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("citizen_id = ?", id).Delete(&models.Warrant{}).Error; err != nil {
			return err
		}

		if err := tx.Model(citizen).Association("Flags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Citizen{}, "id = ?", id).Error
	})
	return dbErr(err, code.ErrCitizenNotFound)
}

// 6. UpdateCitizenFlags replaces the citizen's flags. Every id must be a
// FLAG value or nothing is changed.
func (s *CitizenService) UpdateCitizenFlags(ctx context.Context, id string, flagIDs []string) (*models.Citizen, error) {
	var citizen *models.Citizen
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findCitizen(tx, id)
		if err != nil {
			return err
		}
		if err := reconcileFlags(tx, current, "Flags", current.Flags, flagIDs, models.ValueTypeFlag); err != nil {
			return err
		}
		citizen, err = findCitizen(tx, id)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrCitizenNotFound)
	}
	return citizen, nil
}

// 7. RegisterVehicle registers a vehicle
func (s *CitizenService) RegisterVehicle(ctx context.Context, in VehicleInput) (*models.RegisteredVehicle, error) {
	plate := strings.ToUpper(strings.TrimSpace(in.Plate))
	if plate == "" {
		return nil, code.Newf(code.ErrValidation, "plate is required")
	}

	vehicle := models.RegisteredVehicle{
		CitizenID: in.CitizenID,
		Plate:     plate,
		Model:     in.Model,
		Color:     in.Color,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCitizen(tx, in.CitizenID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.RegisteredVehicle{}).Where("plate = ?", plate).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return code.New(code.ErrPlateTaken)
		}
		return tx.Create(&vehicle).Error
	})
	if err != nil {
		return nil, dbErr(err, code.ErrVehicleNotFound)
	}
	return &vehicle, nil
}

// 8. DeleteVehicle deletes a vehicle
func (s *CitizenService) DeleteVehicle(ctx context.Context, id string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vehicle models.RegisteredVehicle
		if err := tx.First(&vehicle, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&vehicle).Association("Flags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&vehicle).Error
	})
	return dbErr(err, code.ErrVehicleNotFound)
}

// 9. UpdateVehicleFlags replaces the vehicle's flags with VEHICLE_FLAG values
func (s *CitizenService) UpdateVehicleFlags(ctx context.Context, id string, flagIDs []string) (*models.RegisteredVehicle, error) {
	var vehicle models.RegisteredVehicle
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.RegisteredVehicle
		if err := tx.Preload("Flags").First(&current, "id = ?", id).Error; err != nil {
			return err
		}
		if err := reconcileFlags(tx, &current, "Flags", current.Flags, flagIDs, models.ValueTypeVehicleFlag); err != nil {
			return err
		}
		return tx.Preload("Flags").First(&vehicle, "id = ?", id).Error
	})
	if err != nil {
		return nil, dbErr(err, code.ErrVehicleNotFound)
	}
	return &vehicle, nil
}

// 10. RegisterWeapon registers a weapon
func (s *CitizenService) RegisterWeapon(ctx context.Context, in WeaponInput) (*models.Weapon, error) {
	serial := strings.TrimSpace(in.SerialNumber)
	if serial == "" {
		return nil, code.Newf(code.ErrValidation, "serial number is required")
	}

	weapon := models.Weapon{CitizenID: in.CitizenID, SerialNumber: serial, Model: in.Model}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCitizen(tx, in.CitizenID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Weapon{}).Where("serial_number = ?", serial).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return code.New(code.ErrSerialNumberTaken)
		}
		return tx.Create(&weapon).Error
	})
	if err != nil {
		return nil, dbErr(err, code.ErrWeaponNotFound)
	}
	return &weapon, nil
}

// 11. DeleteWeapon deletes a weapon
func (s *CitizenService) DeleteWeapon(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.Weapon{}, "id = ?", id)
	if res.Error != nil {
		return dbErr(res.Error, code.ErrWeaponNotFound)
	}
	if res.RowsAffected == 0 {
		return code.New(code.ErrWeaponNotFound)
	}
	return nil
}

func findCitizen(tx *gorm.DB, id string) (*models.Citizen, error) {
	var citizen models.Citizen
	err := tx.Preload("Flags").Preload("Vehicles.Flags").Preload("Weapons").First(&citizen, "id = ?", id).Error
	if err != nil {
		return nil, dbErr(err, code.ErrCitizenNotFound)
	}
	return &citizen, nil
}

func validateCitizenInput(in CitizenInput) error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Surname) == "" {
		return code.Newf(code.ErrValidation, "name and surname are required")
	}
	return nil
}

// reconcileFlags turns owner's many2many association into desired. Every
// desired id is checked against typ before anything is written.
func reconcileFlags(tx *gorm.DB, owner interface{}, association string, current []models.Value, desired []string, typ models.ValueType) error {
	desired = uniqueIDs(desired)
	values := make(map[string]models.Value, len(desired))
	if len(desired) > 0 {
		var found []models.Value
		if err := tx.Where("id IN ? AND type = ?", desired, typ).Find(&found).Error; err != nil {
			return err
		}
		if len(found) != len(desired) {
			return code.New(code.ErrInvalidFlag)
		}
		for _, v := range found {
			values[v.ID] = v
		}
	}

	currentIDs := make([]string, 0, len(current))
	for _, v := range current {
		currentIDs = append(currentIDs, v.ID)
		values[v.ID] = v
	}

	return dispatch.ApplyOperations(dispatch.Reconcile(currentIDs, desired),
		func(id string) error {
			v := values[id]
			return tx.Model(owner).Association(association).Delete(&v)
		},
		func(id string) error {
			v := values[id]
			return tx.Model(owner).Association(association).Append(&v)
		},
	)
}
