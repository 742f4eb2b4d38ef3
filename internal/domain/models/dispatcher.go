package models

// ActiveDispatchers marks a user as staffing the dispatch console.
// UpdatedAt doubles as the presence heartbeat.
type ActiveDispatchers struct {
	BaseModel
	UserID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
