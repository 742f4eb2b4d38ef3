package models

type WarrantStatus string

const (
	WarrantStatusActive   WarrantStatus = "ACTIVE"
	WarrantStatusInactive WarrantStatus = "INACTIVE"
)

func (s WarrantStatus) Valid() bool {
	return s == WarrantStatusActive || s == WarrantStatusInactive
}

type WarrantApprovalStatus string

const (
	WarrantApprovalPending  WarrantApprovalStatus = "PENDING"
	WarrantApprovalAccepted WarrantApprovalStatus = "ACCEPTED"
	WarrantApprovalDeclined WarrantApprovalStatus = "DECLINED"
)

// Warrant is issued against a citizen and may need a judge's approval
// before it can become active.
type Warrant struct {
	BaseModel
	CitizenID        string                   `gorm:"type:varchar(36);index;not null" json:"citizenId"`
	Citizen          *Citizen                 `gorm:"foreignKey:CitizenID" json:"citizen,omitempty"`
	Description      string                   `gorm:"type:text" json:"description"`
	Status           WarrantStatus            `gorm:"type:varchar(20);index;not null" json:"status"`
	ApprovalStatus   WarrantApprovalStatus    `gorm:"type:varchar(20);not null" json:"approvalStatus"`
	AssignedOfficers []WarrantAssignedOfficer `gorm:"foreignKey:WarrantID;constraint:OnDelete:CASCADE" json:"assignedOfficers"`
}

type WarrantAssignedOfficer struct {
	BaseModel
	WarrantID string   `gorm:"type:varchar(36);index;not null" json:"warrantId"`
	UnitKind  UnitKind `gorm:"type:varchar(20);not null" json:"unitKind"`
	UnitID    string   `gorm:"type:varchar(36);index;not null" json:"unitId"`
}
