package models

import "time"

type Citizen struct {
	BaseModel
	UserID      *string             `gorm:"type:varchar(36);index" json:"userId"`
	Name        string              `gorm:"type:varchar(255);not null" json:"name"`
	Surname     string              `gorm:"type:varchar(255);not null" json:"surname"`
	DateOfBirth time.Time           `json:"dateOfBirth"`
	Address     string              `gorm:"type:varchar(255)" json:"address"`
	Flags       []Value             `gorm:"many2many:citizen_flags;" json:"flags"`
	Vehicles    []RegisteredVehicle `gorm:"foreignKey:CitizenID" json:"vehicles,omitempty"`
	Weapons     []Weapon            `gorm:"foreignKey:CitizenID" json:"weapons,omitempty"`
}

type RegisteredVehicle struct {
	BaseModel
	CitizenID string  `gorm:"type:varchar(36);index;not null" json:"citizenId"`
	Plate     string  `gorm:"type:varchar(20);uniqueIndex;not null" json:"plate"`
	Model     string  `gorm:"type:varchar(255)" json:"model"`
	Color     string  `gorm:"type:varchar(50)" json:"color"`
	Flags     []Value `gorm:"many2many:vehicle_flags;" json:"flags"`
}

type Weapon struct {
	BaseModel
	CitizenID    string `gorm:"type:varchar(36);index;not null" json:"citizenId"`
	SerialNumber string `gorm:"type:varchar(50);uniqueIndex;not null" json:"serialNumber"`
	Model        string `gorm:"type:varchar(255)" json:"model"`
}
