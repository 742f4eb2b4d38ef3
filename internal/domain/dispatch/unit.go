package dispatch

import (
	"time"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
)

// Unit is the shape every unit kind takes on the dispatch board
type Unit struct {
	Kind                      models.UnitKind     `json:"kind"`
	ID                        string              `json:"id"`
	Callsign                  string              `json:"callsign"`
	UserID                    string              `json:"userId,omitempty"`
	DepartmentID              *string             `json:"departmentId"`
	StatusID                  *string             `json:"statusId"`
	Status                    *models.StatusValue `json:"status"`
	LastStatusChangeTimestamp *time.Time          `json:"lastStatusChangeTimestamp"`
	ActiveIncidentID          *string             `json:"activeIncidentId"`
	ActiveCallID              *string             `json:"activeCallId"`
	RadioChannelID            *string             `json:"radioChannelId"`
	CombinedUnitID            *string             `json:"combinedUnitId,omitempty"`
	Members                   []Unit              `json:"members,omitempty"`
}

func FromOfficer(o models.Officer) Unit {
	return Unit{
		Kind:                      models.UnitKindOfficer,
		ID:                        o.ID,
		Callsign:                  o.Callsign,
		UserID:                    o.UserID,
		DepartmentID:              o.DepartmentID,
		StatusID:                  o.StatusID,
		Status:                    o.Status,
		LastStatusChangeTimestamp: o.LastStatusChangeTimestamp,
		ActiveIncidentID:          o.ActiveIncidentID,
		ActiveCallID:              o.ActiveCallID,
		RadioChannelID:            o.RadioChannelID,
		CombinedUnitID:            o.CombinedLeoUnitID,
	}
}

func FromDeputy(d models.EmsFdDeputy) Unit {
	return Unit{
		Kind:                      models.UnitKindEmsFd,
		ID:                        d.ID,
		Callsign:                  d.Callsign,
		UserID:                    d.UserID,
		DepartmentID:              d.DepartmentID,
		StatusID:                  d.StatusID,
		Status:                    d.Status,
		LastStatusChangeTimestamp: d.LastStatusChangeTimestamp,
		ActiveIncidentID:          d.ActiveIncidentID,
		ActiveCallID:              d.ActiveCallID,
		RadioChannelID:            d.RadioChannelID,
		CombinedUnitID:            d.CombinedEmsFdUnitID,
	}
}

func FromCombinedLeo(c models.CombinedLeoUnit) Unit {
	u := Unit{
		Kind:                      models.UnitKindCombinedLeo,
		ID:                        c.ID,
		Callsign:                  c.Callsign,
		StatusID:                  c.StatusID,
		Status:                    c.Status,
		LastStatusChangeTimestamp: c.LastStatusChangeTimestamp,
		ActiveIncidentID:          c.ActiveIncidentID,
		ActiveCallID:              c.ActiveCallID,
		RadioChannelID:            c.RadioChannelID,
	}
	for _, o := range c.Officers {
		u.Members = append(u.Members, FromOfficer(o))
	}
	return u
}

func FromCombinedEmsFd(c models.CombinedEmsFdUnit) Unit {
	u := Unit{
		Kind:                      models.UnitKindCombinedEmsFd,
		ID:                        c.ID,
		Callsign:                  c.Callsign,
		StatusID:                  c.StatusID,
		Status:                    c.Status,
		LastStatusChangeTimestamp: c.LastStatusChangeTimestamp,
		ActiveIncidentID:          c.ActiveIncidentID,
		ActiveCallID:              c.ActiveCallID,
		RadioChannelID:            c.RadioChannelID,
	}
	for _, d := range c.Deputies {
		u.Members = append(u.Members, FromDeputy(d))
	}
	return u
}

// NormalizeUnit demotes a unit whose last status change is stale to the
// off duty status and reports whether it was stale. Without an off duty
// status the unit is left as it is.
func NormalizeUnit(u *Unit, filter *InactivityFilter, offDuty *models.StatusValue, now time.Time) bool {
	if !filter.IsStale(u.LastStatusChangeTimestamp) {
		return false
	}
	if offDuty == nil {
		return true
	}

	id := offDuty.ID
	u.StatusID = &id
	u.Status = offDuty
	u.LastStatusChangeTimestamp = &now
	return true
}
