package models

// Call911 is an emergency call waiting for or being worked by units
type Call911 struct {
	BaseModel
	Name            string         `gorm:"type:varchar(255)" json:"name"`
	Location        string         `gorm:"type:varchar(255);not null" json:"location"`
	Postal          string         `gorm:"type:varchar(50)" json:"postal"`
	Description     string         `gorm:"type:text" json:"description"`
	Ended           bool           `gorm:"index" json:"ended"`
	SituationCodeID *string        `gorm:"type:varchar(36)" json:"situationCodeId"`
	SituationCode   *StatusValue   `gorm:"foreignKey:SituationCodeID" json:"situationCode,omitempty"`
	CreatorID       *string        `gorm:"type:varchar(36)" json:"creatorId"`
	AssignedUnits   []AssignedUnit `gorm:"foreignKey:Call911ID;constraint:OnDelete:CASCADE" json:"assignedUnits"`
}

func (Call911) TableName() string {
	return "calls_911"
}

// AssignedUnit links a unit of any kind to a 911 call
type AssignedUnit struct {
	BaseModel
	Call911ID string   `gorm:"column:call911_id;type:varchar(36);index;not null" json:"call911Id"`
	UnitKind  UnitKind `gorm:"type:varchar(20);not null" json:"unitKind"`
	UnitID    string   `gorm:"type:varchar(36);index;not null" json:"unitId"`
}

// TowCall asks a tow truck for a vehicle. The assigned unit is a citizen.
type TowCall struct {
	BaseModel
	Location       string   `gorm:"type:varchar(255);not null" json:"location"`
	Postal         string   `gorm:"type:varchar(50)" json:"postal"`
	Description    string   `gorm:"type:text" json:"description"`
	CreatorID      *string  `gorm:"type:varchar(36)" json:"creatorId"`
	AssignedUnitID *string  `gorm:"type:varchar(36)" json:"assignedUnitId"`
	AssignedUnit   *Citizen `gorm:"foreignKey:AssignedUnitID" json:"assignedUnit,omitempty"`
	Ended          bool     `gorm:"index" json:"ended"`
}

// TaxiCall asks a taxi driver for a ride. It shares the tow call columns
// and converts to and from TowCall.
type TaxiCall TowCall
