package models

// ValueType groups the admin managed values
type ValueType string

const (
	ValueTypeFlag        ValueType = "FLAG"
	ValueTypeVehicleFlag ValueType = "VEHICLE_FLAG"
	ValueTypeDepartment  ValueType = "DEPARTMENT"
	ValueTypePenalCode   ValueType = "PENAL_CODE"
)

// Valid reports whether t is a known value type
func (t ValueType) Valid() bool {
	switch t {
	case ValueTypeFlag, ValueTypeVehicleFlag, ValueTypeDepartment, ValueTypePenalCode:
		return true
	}
	return false
}

// Value is an admin managed tag (flags, departments, penal codes)
type Value struct {
	BaseModel
	Type        ValueType `gorm:"type:varchar(30);index;not null" json:"type"`
	Value       string    `gorm:"type:varchar(255);not null" json:"value"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Position    int       `json:"position"`
}

// ShouldDo describes what selecting a status code does to a unit
type ShouldDo string

const (
	ShouldDoSetOnDuty   ShouldDo = "SET_ON_DUTY"
	ShouldDoSetOffDuty  ShouldDo = "SET_OFF_DUTY"
	ShouldDoSetStatus   ShouldDo = "SET_STATUS"
	ShouldDoPanicButton ShouldDo = "PANIC_BUTTON"
)

// Valid reports whether s is a known action
func (s ShouldDo) Valid() bool {
	switch s {
	case ShouldDoSetOnDuty, ShouldDoSetOffDuty, ShouldDoSetStatus, ShouldDoPanicButton:
		return true
	}
	return false
}

type StatusValueType string

const (
	StatusValueTypeStatusCode    StatusValueType = "STATUS_CODE"
	StatusValueTypeSituationCode StatusValueType = "SITUATION_CODE"
)

// StatusValue is a 10-code. Exactly one code should carry each ShouldDo
// action; when several do, the lowest position wins.
type StatusValue struct {
	BaseModel
	Value    string          `gorm:"type:varchar(255);not null" json:"value"`
	ShouldDo ShouldDo        `gorm:"type:varchar(30);index;not null" json:"shouldDo"`
	Type     StatusValueType `gorm:"type:varchar(30);not null" json:"type"`
	Color    string          `gorm:"type:varchar(20)" json:"color,omitempty"`
	Position int             `json:"position"`
}
