package models

// LeoIncident is toggled between active and inactive. Active incidents
// claim their involved units through the unit's ActiveIncidentID.
type LeoIncident struct {
	BaseModel
	CaseNumber       int                    `gorm:"uniqueIndex" json:"caseNumber"`
	Description      string                 `gorm:"type:text" json:"description"`
	IsActive         bool                   `gorm:"index" json:"isActive"`
	CreatorID        *string                `gorm:"type:varchar(36)" json:"creatorId"`
	FirearmsInvolved bool                   `json:"firearmsInvolved"`
	InjuriesOrDeaths bool                   `json:"injuriesOrDeaths"`
	ArrestsMade      bool                   `json:"arrestsMade"`
	UnitsInvolved    []IncidentInvolvedUnit `gorm:"foreignKey:IncidentID;constraint:OnDelete:CASCADE" json:"unitsInvolved"`
}

type IncidentInvolvedUnit struct {
	BaseModel
	IncidentID string   `gorm:"type:varchar(36);index;not null" json:"incidentId"`
	UnitKind   UnitKind `gorm:"type:varchar(20);not null" json:"unitKind"`
	UnitID     string   `gorm:"type:varchar(36);index;not null" json:"unitId"`
}
