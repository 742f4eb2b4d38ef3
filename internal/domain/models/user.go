package models

import "gorm.io/datatypes"

// Rank is the coarse role of a user. Owners bypass permission checks.
type Rank string

const (
	RankOwner Rank = "OWNER"
	RankAdmin Rank = "ADMIN"
	RankUser  Rank = "USER"
)

// User is an account of the CAD
type User struct {
	BaseModel
	Username    string                      `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Password    string                      `gorm:"type:varchar(100);not null" json:"-"`
	Rank        Rank                        `gorm:"type:varchar(20);not null" json:"rank"`
	Permissions datatypes.JSONSlice[string] `json:"permissions"`
}
