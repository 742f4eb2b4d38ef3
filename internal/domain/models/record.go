package models

type RecordType string

const (
	RecordTypeTicket         RecordType = "TICKET"
	RecordTypeArrestReport   RecordType = "ARREST_REPORT"
	RecordTypeWrittenWarning RecordType = "WRITTEN_WARNING"
)

func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeTicket, RecordTypeArrestReport, RecordTypeWrittenWarning:
		return true
	}
	return false
}

// Record is a ticket, arrest report or written warning with its violations
type Record struct {
	BaseModel
	CitizenID  string      `gorm:"type:varchar(36);index;not null" json:"citizenId"`
	OfficerID  *string     `gorm:"type:varchar(36)" json:"officerId"`
	Type       RecordType  `gorm:"type:varchar(30);not null" json:"type"`
	Postal     string      `gorm:"type:varchar(50)" json:"postal"`
	Notes      string      `gorm:"type:text" json:"notes"`
	Violations []Violation `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"violations"`
}

type Violation struct {
	BaseModel
	RecordID    string `gorm:"type:varchar(36);index;not null" json:"recordId"`
	PenalCodeID string `gorm:"type:varchar(36);not null" json:"penalCodeId"`
	PenalCode   *Value `gorm:"foreignKey:PenalCodeID" json:"penalCode,omitempty"`
	Fine        *int   `json:"fine"`
	JailTime    *int   `json:"jailTime"`
	Bail        *int   `json:"bail"`
}
