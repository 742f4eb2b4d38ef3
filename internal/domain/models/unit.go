package models

import "time"

// UnitKind tags which table a unit lives in
type UnitKind string

const (
	UnitKindOfficer       UnitKind = "officer"
	UnitKindEmsFd         UnitKind = "ems-fd"
	UnitKindCombinedLeo   UnitKind = "combined-leo"
	UnitKindCombinedEmsFd UnitKind = "combined-ems-fd"
)

// UnitKinds lists every kind in lookup order
var UnitKinds = []UnitKind{UnitKindOfficer, UnitKindEmsFd, UnitKindCombinedLeo, UnitKindCombinedEmsFd}

func (k UnitKind) Valid() bool {
	switch k {
	case UnitKindOfficer, UnitKindEmsFd, UnitKindCombinedLeo, UnitKindCombinedEmsFd:
		return true
	}
	return false
}

// IsLeo reports whether the kind belongs to law enforcement
func (k UnitKind) IsLeo() bool {
	return k == UnitKindOfficer || k == UnitKindCombinedLeo
}

// IsCombined reports whether the kind is a grouping of other units
func (k UnitKind) IsCombined() bool {
	return k == UnitKindCombinedLeo || k == UnitKindCombinedEmsFd
}

// Officer is a law enforcement unit owned by a user
type Officer struct {
	BaseModel
	UserID                    string       `gorm:"type:varchar(36);index;not null" json:"userId"`
	Callsign                  string       `gorm:"type:varchar(50);not null" json:"callsign"`
	DepartmentID              *string      `gorm:"type:varchar(36)" json:"departmentId"`
	Department                *Value       `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	StatusID                  *string      `gorm:"type:varchar(36);index" json:"statusId"`
	Status                    *StatusValue `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	LastStatusChangeTimestamp *time.Time   `json:"lastStatusChangeTimestamp"`
	ActiveIncidentID          *string      `gorm:"type:varchar(36)" json:"activeIncidentId"`
	ActiveCallID              *string      `gorm:"type:varchar(36)" json:"activeCallId"`
	RadioChannelID            *string      `gorm:"type:varchar(50)" json:"radioChannelId"`
	CombinedLeoUnitID         *string      `gorm:"type:varchar(36);index" json:"combinedLeoUnitId"`
}

// EmsFdDeputy is an EMS/FD unit owned by a user
type EmsFdDeputy struct {
	BaseModel
	UserID                    string       `gorm:"type:varchar(36);index;not null" json:"userId"`
	Callsign                  string       `gorm:"type:varchar(50);not null" json:"callsign"`
	DepartmentID              *string      `gorm:"type:varchar(36)" json:"departmentId"`
	Department                *Value       `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	StatusID                  *string      `gorm:"type:varchar(36);index" json:"statusId"`
	Status                    *StatusValue `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	LastStatusChangeTimestamp *time.Time   `json:"lastStatusChangeTimestamp"`
	ActiveIncidentID          *string      `gorm:"type:varchar(36)" json:"activeIncidentId"`
	ActiveCallID              *string      `gorm:"type:varchar(36)" json:"activeCallId"`
	RadioChannelID            *string      `gorm:"type:varchar(50)" json:"radioChannelId"`
	CombinedEmsFdUnitID       *string      `gorm:"type:varchar(36);index" json:"combinedEmsFdUnitId"`
}

// CombinedLeoUnit groups officers riding together. Members keep no status of their own.
type CombinedLeoUnit struct {
	BaseModel
	Callsign                  string       `gorm:"type:varchar(50);not null" json:"callsign"`
	StatusID                  *string      `gorm:"type:varchar(36);index" json:"statusId"`
	Status                    *StatusValue `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	LastStatusChangeTimestamp *time.Time   `json:"lastStatusChangeTimestamp"`
	ActiveIncidentID          *string      `gorm:"type:varchar(36)" json:"activeIncidentId"`
	ActiveCallID              *string      `gorm:"type:varchar(36)" json:"activeCallId"`
	RadioChannelID            *string      `gorm:"type:varchar(50)" json:"radioChannelId"`
	Officers                  []Officer    `gorm:"foreignKey:CombinedLeoUnitID" json:"officers"`
}

// CombinedEmsFdUnit groups deputies riding together
type CombinedEmsFdUnit struct {
	BaseModel
	Callsign                  string        `gorm:"type:varchar(50);not null" json:"callsign"`
	StatusID                  *string       `gorm:"type:varchar(36);index" json:"statusId"`
	Status                    *StatusValue  `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	LastStatusChangeTimestamp *time.Time    `json:"lastStatusChangeTimestamp"`
	ActiveIncidentID          *string       `gorm:"type:varchar(36)" json:"activeIncidentId"`
	ActiveCallID              *string       `gorm:"type:varchar(36)" json:"activeCallId"`
	RadioChannelID            *string       `gorm:"type:varchar(50)" json:"radioChannelId"`
	Deputies                  []EmsFdDeputy `gorm:"foreignKey:CombinedEmsFdUnitID" json:"deputies"`
}
