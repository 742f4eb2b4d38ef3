package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel carries the string id and timestamps shared by every table
type BaseModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a uuid when the caller did not pick an id
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// AllModels lists every table for AutoMigrate, parents before children
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Value{},
		&StatusValue{},
		&MiscCadSettings{},
		&CadFeature{},
		&Citizen{},
		&RegisteredVehicle{},
		&Weapon{},
		&CombinedLeoUnit{},
		&CombinedEmsFdUnit{},
		&Officer{},
		&EmsFdDeputy{},
		&Call911{},
		&AssignedUnit{},
		&TowCall{},
		&TaxiCall{},
		&LeoIncident{},
		&IncidentInvolvedUnit{},
		&Warrant{},
		&WarrantAssignedOfficer{},
		&ActiveDispatchers{},
		&Record{},
		&Violation{},
	}
}
