package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/dispatch"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	perm "github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/permissions"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
)

// UnitRef points at a unit of any kind
type UnitRef struct {
	Kind models.UnitKind `json:"kind"`
	ID   string          `json:"id"`
}

type CreateUnitInput struct {
	Callsign       string  `json:"callsign" binding:"required"`
	DepartmentID   *string `json:"departmentId"`
	RadioChannelID *string `json:"radioChannelId"`
}

// InterfaceUnitService defines the unit service interface
type InterfaceUnitService interface {
	FindUnit(ctx context.Context, tx *gorm.DB, id string) (UnitRef, error)
	GetUnit(ctx context.Context, id string) (*dispatch.Unit, error)
	CreateOfficer(ctx context.Context, userID string, in CreateUnitInput) (*models.Officer, error)
	CreateDeputy(ctx context.Context, userID string, in CreateUnitInput) (*models.EmsFdDeputy, error)
	SetUnitStatus(ctx context.Context, actor *models.User, unitID, statusID string) (*dispatch.Unit, error)
	CombineUnits(ctx context.Context, kind models.UnitKind, memberIDs []string, callsign string) (*dispatch.Unit, error)
	UncombineUnit(ctx context.Context, kind models.UnitKind, id string) ([]dispatch.Unit, error)
	SetOffDutyByInactivity(ctx context.Context, filter *dispatch.InactivityFilter, offDuty *models.StatusValue) (int64, error)
}

// UnitService owns the unit status state machine. Concurrent status
// changes to the same unit are not versioned: the last write wins.
type UnitService struct {
	DB        *gorm.DB
	Config    *config.Config
	Broadcast InterfaceBroadcastService
	Webhook   InterfaceWebhookService
}

func NewUnitService(db *gorm.DB, cfg *config.Config, broadcast InterfaceBroadcastService, webhook InterfaceWebhookService) InterfaceUnitService {
	return &UnitService{
		DB:        db,
		Config:    cfg,
		Broadcast: broadcast,
		Webhook:   webhook,
	}
}

// 1. FindUnit resolves an id over every unit kind. tx may be nil.
func (s *UnitService) FindUnit(ctx context.Context, tx *gorm.DB, id string) (UnitRef, error) {
	if tx == nil {
		tx = s.DB.WithContext(ctx)
	}
	return findUnit(tx, id)
}

// 2. GetUnit loads a unit of any kind
func (s *UnitService) GetUnit(ctx context.Context, id string) (*dispatch.Unit, error) {
	db := s.DB.WithContext(ctx)
	ref, err := findUnit(db, id)
	if err != nil {
		return nil, err
	}
	unit, err := loadUnit(db, ref)
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// 3. CreateOfficer registers the user as a law enforcement officer. New
// units start without a status, which the board treats as off duty.
func (s *UnitService) CreateOfficer(ctx context.Context, userID string, in CreateUnitInput) (*models.Officer, error) {
	if err := s.validateUnitInput(ctx, in); err != nil {
		return nil, err
	}

	officer := models.Officer{
		UserID:         userID,
		Callsign:       strings.TrimSpace(in.Callsign),
		DepartmentID:   in.DepartmentID,
		RadioChannelID: in.RadioChannelID,
	}
	if err := s.DB.WithContext(ctx).Create(&officer).Error; err != nil {
		return nil, dbErr(err, code.ErrUnitNotFound)
	}
	return &officer, nil
}

// 4. CreateDeputy registers the user as an EMS/FD deputy
func (s *UnitService) CreateDeputy(ctx context.Context, userID string, in CreateUnitInput) (*models.EmsFdDeputy, error) {
	if err := s.validateUnitInput(ctx, in); err != nil {
		return nil, err
	}

	deputy := models.EmsFdDeputy{
		UserID:         userID,
		Callsign:       strings.TrimSpace(in.Callsign),
		DepartmentID:   in.DepartmentID,
		RadioChannelID: in.RadioChannelID,
	}
	if err := s.DB.WithContext(ctx).Create(&deputy).Error; err != nil {
		return nil, dbErr(err, code.ErrUnitNotFound)
	}
	return &deputy, nil
}

func (s *UnitService) validateUnitInput(ctx context.Context, in CreateUnitInput) error {
	if strings.TrimSpace(in.Callsign) == "" {
		return code.Newf(code.ErrValidation, "callsign is required")
	}
	if in.DepartmentID == nil {
		return nil
	}

	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Value{}).
		Where("id = ? AND type = ?", *in.DepartmentID, models.ValueTypeDepartment).Count(&n).Error
	if err != nil {
		return dbErr(err, code.ErrValueNotFound)
	}
	if n == 0 {
		return code.New(code.ErrValueNotFound)
	}
	return nil
}

// 5. SetUnitStatus moves a unit to a status code and applies what the code
// does: going off duty releases the unit from its call and incident and
// disbands a combined unit, the panic button alerts everyone.
func (s *UnitService) SetUnitStatus(ctx context.Context, actor *models.User, unitID, statusID string) (*dispatch.Unit, error) {
	var (
		result dispatch.Unit
		status models.StatusValue
	)
	now := time.Now()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := findUnit(tx, unitID)
		if err != nil {
			return err
		}
		unit, err := loadUnit(tx, ref)
		if err != nil {
			return err
		}
		if !canControl(actor, unit) {
			return code.New(code.ErrUnitNotOwned)
		}
		if unit.CombinedUnitID != nil {
			return code.New(code.ErrUnitAlreadyCombined)
		}

		if err := tx.First(&status, "id = ? AND type = ?", statusID, models.StatusValueTypeStatusCode).Error; err != nil {
			return dbErr(err, code.ErrStatusNotFound)
		}

		updates := map[string]interface{}{
			"status_id":                    status.ID,
			"last_status_change_timestamp": now,
		}
		if status.ShouldDo == models.ShouldDoSetOffDuty {
			updates["active_call_id"] = nil
			updates["active_incident_id"] = nil
			if err := releaseFromOpenCalls(tx, ref.ID); err != nil {
				return err
			}

			if ref.Kind.IsCombined() {
				if err := disband(tx, ref, &status.ID, now); err != nil {
					return err
				}
				unit.StatusID = &status.ID
				unit.Status = &status
				unit.LastStatusChangeTimestamp = &now
				unit.ActiveCallID = nil
				unit.ActiveIncidentID = nil
				result = unit
				return nil
			}
		}

		if err := updateUnit(tx, ref, updates); err != nil {
			return err
		}
		result, err = loadUnit(tx, ref)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrUnitNotFound)
	}

	s.Broadcast.Emit(statusEvent(result.Kind), result)
	if status.ShouldDo == models.ShouldDoPanicButton {
		s.Broadcast.Emit(EventPanicButton, result)
		s.Webhook.Send(ctx, WebhookPanicButton, fmt.Sprintf("%s pressed the panic button", result.Callsign))
	}
	return &result, nil
}

// 6. CombineUnits merges on duty officers (or deputies) into one unit that
// takes the first member's status. Members hold no status while combined.
func (s *UnitService) CombineUnits(ctx context.Context, kind models.UnitKind, memberIDs []string, callsign string) (*dispatch.Unit, error) {
	ids := uniqueIDs(memberIDs)
	if len(ids) < 2 {
		return nil, code.New(code.ErrNotEnoughUnits)
	}
	now := time.Now()

	var result dispatch.Unit
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ref UnitRef
		switch kind {
		case models.UnitKindOfficer:
			var members []models.Officer
			if err := tx.Preload("Status").Where("id IN ?", ids).Find(&members).Error; err != nil {
				return err
			}
			if len(members) != len(ids) {
				return code.New(code.ErrUnitNotFound)
			}
			byID := make(map[string]models.Officer, len(members))
			var callsigns []string
			for _, m := range members {
				if m.CombinedLeoUnitID != nil {
					return code.New(code.ErrUnitAlreadyCombined)
				}
				if !onDuty(m.Status) {
					return code.New(code.ErrUnitOffDuty)
				}
				byID[m.ID] = m
			}
			for _, id := range ids {
				callsigns = append(callsigns, byID[id].Callsign)
			}
			first := byID[ids[0]]

			combined := models.CombinedLeoUnit{
				Callsign:                  combinedCallsign(callsign, callsigns),
				StatusID:                  first.StatusID,
				LastStatusChangeTimestamp: &now,
				ActiveIncidentID:          first.ActiveIncidentID,
				ActiveCallID:              first.ActiveCallID,
				RadioChannelID:            first.RadioChannelID,
			}
			if err := tx.Create(&combined).Error; err != nil {
				return err
			}
			err := tx.Model(&models.Officer{}).Where("id IN ?", ids).Updates(map[string]interface{}{
				"combined_leo_unit_id":         combined.ID,
				"status_id":                    nil,
				"last_status_change_timestamp": now,
			}).Error
			if err != nil {
				return err
			}
			ref = UnitRef{Kind: models.UnitKindCombinedLeo, ID: combined.ID}

		case models.UnitKindEmsFd:
			var members []models.EmsFdDeputy
			if err := tx.Preload("Status").Where("id IN ?", ids).Find(&members).Error; err != nil {
				return err
			}
			if len(members) != len(ids) {
				return code.New(code.ErrUnitNotFound)
			}
			byID := make(map[string]models.EmsFdDeputy, len(members))
			var callsigns []string
			for _, m := range members {
				if m.CombinedEmsFdUnitID != nil {
					return code.New(code.ErrUnitAlreadyCombined)
				}
				if !onDuty(m.Status) {
					return code.New(code.ErrUnitOffDuty)
				}
				byID[m.ID] = m
			}
			for _, id := range ids {
				callsigns = append(callsigns, byID[id].Callsign)
			}
			first := byID[ids[0]]

			combined := models.CombinedEmsFdUnit{
				Callsign:                  combinedCallsign(callsign, callsigns),
				StatusID:                  first.StatusID,
				LastStatusChangeTimestamp: &now,
				ActiveIncidentID:          first.ActiveIncidentID,
				ActiveCallID:              first.ActiveCallID,
				RadioChannelID:            first.RadioChannelID,
			}
			if err := tx.Create(&combined).Error; err != nil {
				return err
			}
			err := tx.Model(&models.EmsFdDeputy{}).Where("id IN ?", ids).Updates(map[string]interface{}{
				"combined_ems_fd_unit_id":      combined.ID,
				"status_id":                    nil,
				"last_status_change_timestamp": now,
			}).Error
			if err != nil {
				return err
			}
			ref = UnitRef{Kind: models.UnitKindCombinedEmsFd, ID: combined.ID}

		default:
			return code.New(code.ErrInvalidUnitKind)
		}

		var err error
		result, err = loadUnit(tx, ref)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrUnitNotFound)
	}

	s.Broadcast.Emit(statusEvent(result.Kind), result)
	return &result, nil
}

// 7. UncombineUnit hands the combined unit's status back to its members
// and deletes the combined unit
func (s *UnitService) UncombineUnit(ctx context.Context, kind models.UnitKind, id string) ([]dispatch.Unit, error) {
	if !kind.IsCombined() {
		return nil, code.New(code.ErrInvalidUnitKind)
	}
	now := time.Now()

	var members []dispatch.Unit
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref := UnitRef{Kind: kind, ID: id}
		unit, err := loadUnit(tx, ref)
		if err != nil {
			return err
		}
		if err := releaseFromOpenCalls(tx, id); err != nil {
			return err
		}
		if err := disband(tx, ref, unit.StatusID, now); err != nil {
			return err
		}

		for _, m := range unit.Members {
			member, err := loadUnit(tx, UnitRef{Kind: m.Kind, ID: m.ID})
			if err != nil {
				return err
			}
			members = append(members, member)
		}
		return nil
	})
	if err != nil {
		return nil, dbErr(err, code.ErrUnitNotFound)
	}

	s.Broadcast.Emit(statusEvent(kind), members)
	return members, nil
}

// 8. SetOffDutyByInactivity persists the read time demotion for every
// unit whose last status change is stale. It is the same transition as a
// SET_OFF_DUTY status code: open calls and the active incident are
// released and combined units are disbanded.
func (s *UnitService) SetOffDutyByInactivity(ctx context.Context, filter *dispatch.InactivityFilter, offDuty *models.StatusValue) (int64, error) {
	if filter == nil || offDuty == nil {
		return 0, nil
	}
	now := time.Now()

	var total int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, kind := range models.UnitKinds {
			model, err := unitModel(kind)
			if err != nil {
				return err
			}
			var ids []string
			err = tx.Model(model).
				Where("status_id IS NOT NULL AND status_id <> ?", offDuty.ID).
				Where(filter.Stale()).
				Pluck("id", &ids).Error
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				continue
			}

			if err := releaseFromOpenCalls(tx, ids...); err != nil {
				return err
			}
			if kind.IsCombined() {
				for _, id := range ids {
					if err := disband(tx, UnitRef{Kind: kind, ID: id}, &offDuty.ID, now); err != nil {
						return err
					}
				}
			} else {
				err := tx.Model(model).Where("id IN ?", ids).Updates(map[string]interface{}{
					"status_id":                    offDuty.ID,
					"last_status_change_timestamp": now,
					"active_call_id":               nil,
					"active_incident_id":           nil,
				}).Error
				if err != nil {
					return err
				}
			}
			total += int64(len(ids))
		}
		return nil
	})
	if err != nil {
		return 0, dbErr(err, code.ErrUnitNotFound)
	}
	return total, nil
}

// unitModel maps a kind to its table. Every kind is listed explicitly.
func unitModel(kind models.UnitKind) (interface{}, error) {
	switch kind {
	case models.UnitKindOfficer:
		return &models.Officer{}, nil
	case models.UnitKindEmsFd:
		return &models.EmsFdDeputy{}, nil
	case models.UnitKindCombinedLeo:
		return &models.CombinedLeoUnit{}, nil
	case models.UnitKindCombinedEmsFd:
		return &models.CombinedEmsFdUnit{}, nil
	}
	return nil, code.New(code.ErrInvalidUnitKind)
}

func findUnit(tx *gorm.DB, id string) (UnitRef, error) {
	if id == "" {
		return UnitRef{}, code.New(code.ErrUnitNotFound)
	}
	for _, kind := range models.UnitKinds {
		model, err := unitModel(kind)
		if err != nil {
			return UnitRef{}, err
		}
		var n int64
		if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
			return UnitRef{}, dbErr(err, code.ErrUnitNotFound)
		}
		if n > 0 {
			return UnitRef{Kind: kind, ID: id}, nil
		}
	}
	return UnitRef{}, code.New(code.ErrUnitNotFound)
}

// resolveUnits fails on the first id that is not a unit
func resolveUnits(tx *gorm.DB, ids []string) ([]UnitRef, error) {
	refs := make([]UnitRef, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		ref, err := findUnit(tx, id)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func loadUnit(tx *gorm.DB, ref UnitRef) (dispatch.Unit, error) {
	switch ref.Kind {
	case models.UnitKindOfficer:
		var o models.Officer
		if err := tx.Preload("Status").First(&o, "id = ?", ref.ID).Error; err != nil {
			return dispatch.Unit{}, dbErr(err, code.ErrUnitNotFound)
		}
		return dispatch.FromOfficer(o), nil
	case models.UnitKindEmsFd:
		var d models.EmsFdDeputy
		if err := tx.Preload("Status").First(&d, "id = ?", ref.ID).Error; err != nil {
			return dispatch.Unit{}, dbErr(err, code.ErrUnitNotFound)
		}
		return dispatch.FromDeputy(d), nil
	case models.UnitKindCombinedLeo:
		var c models.CombinedLeoUnit
		if err := tx.Preload("Status").Preload("Officers").First(&c, "id = ?", ref.ID).Error; err != nil {
			return dispatch.Unit{}, dbErr(err, code.ErrUnitNotFound)
		}
		return dispatch.FromCombinedLeo(c), nil
	case models.UnitKindCombinedEmsFd:
		var c models.CombinedEmsFdUnit
		if err := tx.Preload("Status").Preload("Deputies").First(&c, "id = ?", ref.ID).Error; err != nil {
			return dispatch.Unit{}, dbErr(err, code.ErrUnitNotFound)
		}
		return dispatch.FromCombinedEmsFd(c), nil
	}
	return dispatch.Unit{}, code.New(code.ErrInvalidUnitKind)
}

func updateUnit(tx *gorm.DB, ref UnitRef, updates map[string]interface{}) error {
	model, err := unitModel(ref.Kind)
	if err != nil {
		return err
	}
	return tx.Model(model).Where("id = ?", ref.ID).Updates(updates).Error
}

// disband returns the members of a combined unit to solo duty with the
// given status and deletes the combined row
func disband(tx *gorm.DB, ref UnitRef, statusID *string, now time.Time) error {
	switch ref.Kind {
	case models.UnitKindCombinedLeo:
		err := tx.Model(&models.Officer{}).Where("combined_leo_unit_id = ?", ref.ID).Updates(map[string]interface{}{
			"combined_leo_unit_id":         nil,
			"status_id":                    statusID,
			"last_status_change_timestamp": now,
		}).Error
		if err != nil {
			return err
		}
		return tx.Delete(&models.CombinedLeoUnit{}, "id = ?", ref.ID).Error
	case models.UnitKindCombinedEmsFd:
		err := tx.Model(&models.EmsFdDeputy{}).Where("combined_ems_fd_unit_id = ?", ref.ID).Updates(map[string]interface{}{
			"combined_ems_fd_unit_id":      nil,
			"status_id":                    statusID,
			"last_status_change_timestamp": now,
		}).Error
		if err != nil {
			return err
		}
		return tx.Delete(&models.CombinedEmsFdUnit{}, "id = ?", ref.ID).Error
	}
	return code.New(code.ErrInvalidUnitKind)
}

// releaseFromOpenCalls drops the units from every 911 call still running
func releaseFromOpenCalls(tx *gorm.DB, unitIDs ...string) error {
	open := tx.Model(&models.Call911{}).Select("id").Where("ended = ?", false)
	return tx.Where("unit_id IN ? AND call911_id IN (?)", unitIDs, open).Delete(&models.AssignedUnit{}).Error
}

func canControl(actor *models.User, unit dispatch.Unit) bool {
	if perm.HasPermission(actor, perm.Dispatch) {
		return true
	}
	if actor == nil {
		return false
	}
	if unit.UserID == actor.ID {
		return true
	}
	for _, m := range unit.Members {
		if m.UserID == actor.ID {
			return true
		}
	}
	return false
}

func onDuty(status *models.StatusValue) bool {
	return status != nil && status.ShouldDo != models.ShouldDoSetOffDuty
}

func combinedCallsign(requested string, members []string) string {
	if c := strings.TrimSpace(requested); c != "" {
		return c
	}
	return strings.Join(members, " / ")
}

func statusEvent(kind models.UnitKind) string {
	if kind.IsLeo() {
		return EventUpdateOfficerStatus
	}
	return EventUpdateEmsFdStatus
}

// uniqueIDs drops blanks and repeats, keeping the first occurrence
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
