// Package permissions names the capabilities a user can be granted and
// checks them.
package permissions

import "github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"

type Permission string

const (
	Leo               Permission = "Leo"
	EmsFd             Permission = "EmsFd"
	Dispatch          Permission = "Dispatch"
	Tow               Permission = "Tow"
	Taxi              Permission = "Taxi"
	ManageWarrants    Permission = "ManageWarrants"
	ReviewWarrants    Permission = "ReviewWarrants"
	ManageIncidents   Permission = "ManageIncidents"
	ManageRecords     Permission = "ManageRecords"
	ManageValues      Permission = "ManageValues"
	ManageCadSettings Permission = "ManageCadSettings"
)

// All lists every permission, used to validate grants
var All = []Permission{
	Leo, EmsFd, Dispatch, Tow, Taxi,
	ManageWarrants, ReviewWarrants, ManageIncidents, ManageRecords,
	ManageValues, ManageCadSettings,
}

// Valid reports whether p is a known permission
func (p Permission) Valid() bool {
	for _, known := range All {
		if known == p {
			return true
		}
	}
	return false
}

// HasPermission reports whether user holds any of required.
// Owners hold everything and an empty requirement always passes.
func HasPermission(user *models.User, required ...Permission) bool {
	if user == nil {
		return false
	}
	if user.Rank == models.RankOwner || len(required) == 0 {
		return true
	}

	granted := make(map[string]struct{}, len(user.Permissions))
	for _, p := range user.Permissions {
		granted[p] = struct{}{}
	}
	for _, p := range required {
		if _, ok := granted[string(p)]; ok {
			return true
		}
	}
	return false
}
