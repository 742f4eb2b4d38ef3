package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/dispatch"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

// caseNumberAttempts bounds retries when the next case number is taken
const caseNumberAttempts = 3

type IncidentInput struct {
	Description      string   `json:"description"`
	IsActive         bool     `json:"isActive"`
	FirearmsInvolved bool     `json:"firearmsInvolved"`
	InjuriesOrDeaths bool     `json:"injuriesOrDeaths"`
	ArrestsMade      bool     `json:"arrestsMade"`
	UnitsInvolved    []string `json:"unitsInvolved"`
}

// InterfaceIncidentService defines the incident service interface
type InterfaceIncidentService interface {
	ListIncidents(ctx context.Context, activeOnly bool) ([]models.LeoIncident, error)
	GetIncident(ctx context.Context, id string) (*models.LeoIncident, error)
	CreateIncident(ctx context.Context, creatorID *string, in IncidentInput) (*models.LeoIncident, error)
	UpdateIncident(ctx context.Context, id string, in IncidentInput) (*models.LeoIncident, error)
	AssignUnit(ctx context.Context, incidentID, unitID string) (*models.LeoIncident, error)
	UnassignUnit(ctx context.Context, incidentID, unitID string) (*models.LeoIncident, error)
	EndIncident(ctx context.Context, id string) (*models.LeoIncident, error)
	DeleteIncident(ctx context.Context, id string) error
	EndStaleIncidents(ctx context.Context, filter *dispatch.InactivityFilter) (int64, error)
}

// IncidentService keeps each involved unit's ActiveIncidentID pointing at
// the most recent active incident that lists it
type IncidentService struct {
	DB        *gorm.DB
	Config    *config.Config
	Settings  InterfaceCadSettingsService
	Broadcast InterfaceBroadcastService
}

func NewIncidentService(db *gorm.DB, cfg *config.Config, settings InterfaceCadSettingsService, broadcast InterfaceBroadcastService) InterfaceIncidentService {
	return &IncidentService{
		DB:        db,
		Config:    cfg,
		Settings:  settings,
		Broadcast: broadcast,
	}
}

// 1. ListIncidents ends stale incidents, then lists them
func (s *IncidentService) ListIncidents(ctx context.Context, activeOnly bool) ([]models.LeoIncident, error) {
	if settings, err := s.Settings.GetSettings(ctx); err != nil {
		Logger.WithError(err).Warn("loading cad settings, stale incidents left open")
	} else {
		filter := dispatch.NewInactivityFilter(time.Now(), settings.Misc.IncidentInactivityTimeout, dispatch.FieldUpdatedAt)
		if _, err := s.EndStaleIncidents(ctx, filter); err != nil {
			Logger.WithError(err).Warn("ending stale incidents")
		}
	}

	var incidents []models.LeoIncident
	query := s.DB.WithContext(ctx).Preload("UnitsInvolved").Order("case_number DESC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&incidents).Error; err != nil {
		return nil, dbErr(err, code.ErrIncidentNotFound)
	}
	return incidents, nil
}

// 2. GetIncident loads an incident
func (s *IncidentService) GetIncident(ctx context.Context, id string) (*models.LeoIncident, error) {
	return findIncident(s.DB.WithContext(ctx), id)
}

// 3. CreateIncident numbers the incident and, when it is active, claims its units.
// With ACTIVE_INCIDENTS disabled every incident is created inactive.
func (s *IncidentService) CreateIncident(ctx context.Context, creatorID *string, in IncidentInput) (*models.LeoIncident, error) {
	active := in.IsActive && s.Settings.IsFeatureEnabled(ctx, models.FeatureActiveIncidents)

	var (
		incident *models.LeoIncident
		err      error
	)
	// a concurrent create may take the same case number
	for attempt := 1; attempt <= caseNumberAttempts; attempt++ {
		incident, err = s.createIncident(ctx, creatorID, in, active)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		Logger.Warning("case number taken, retrying (%d/%d)", attempt, caseNumberAttempts)
	}
	if err != nil {
		return nil, dbErr(err, code.ErrIncidentNotFound)
	}

	s.Broadcast.Emit(EventUpdateActiveIncident, incident)
	return incident, nil
}

func (s *IncidentService) createIncident(ctx context.Context, creatorID *string, in IncidentInput, active bool) (*models.LeoIncident, error) {
	var incident *models.LeoIncident
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs, err := resolveUnits(tx, in.UnitsInvolved)
		if err != nil {
			return err
		}

		var last int
		if err := tx.Model(&models.LeoIncident{}).Select("COALESCE(MAX(case_number), 0)").Scan(&last).Error; err != nil {
			return err
		}

		row := models.LeoIncident{
			CaseNumber:       last + 1,
			Description:      in.Description,
			IsActive:         active,
			CreatorID:        creatorID,
			FirearmsInvolved: in.FirearmsInvolved,
			InjuriesOrDeaths: in.InjuriesOrDeaths,
			ArrestsMade:      in.ArrestsMade,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		for _, ref := range refs {
			if err := connectIncidentUnit(tx, &row, ref); err != nil {
				return err
			}
		}

		incident, err = findIncident(tx, row.ID)
		return err
	})
	return incident, err
}

// 4. UpdateIncident saves the fields, reconciles the involved units and
// applies the active toggle to the units that remain
func (s *IncidentService) UpdateIncident(ctx context.Context, id string, in IncidentInput) (*models.LeoIncident, error) {
	active := in.IsActive && s.Settings.IsFeatureEnabled(ctx, models.FeatureActiveIncidents)

	var incident *models.LeoIncident
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findIncident(tx, id)
		if err != nil {
			return err
		}
		refs, err := resolveUnits(tx, in.UnitsInvolved)
		if err != nil {
			return err
		}

		err = tx.Model(&models.LeoIncident{}).Where("id = ?", id).Updates(map[string]interface{}{
			"description":        in.Description,
			"is_active":          active,
			"firearms_involved":  in.FirearmsInvolved,
			"injuries_or_deaths": in.InjuriesOrDeaths,
			"arrests_made":       in.ArrestsMade,
		}).Error
		if err != nil {
			return err
		}
		updated := *current
		updated.IsActive = active

		kinds := make(map[string]UnitRef, len(refs))
		desired := make([]string, 0, len(refs))
		for _, ref := range refs {
			kinds[ref.ID] = ref
			desired = append(desired, ref.ID)
		}
		currentIDs := make([]string, 0, len(current.UnitsInvolved))
		for _, iu := range current.UnitsInvolved {
			kinds[iu.UnitID] = UnitRef{Kind: iu.UnitKind, ID: iu.UnitID}
			currentIDs = append(currentIDs, iu.UnitID)
		}

		ops := dispatch.Reconcile(currentIDs, desired)
		err = dispatch.ApplyOperations(ops,
			func(unitID string) error { return disconnectIncidentUnit(tx, id, kinds[unitID]) },
			func(unitID string) error { return connectIncidentUnit(tx, &updated, kinds[unitID]) },
		)
		if err != nil {
			return err
		}

		// units kept across the update follow the toggle
		if current.IsActive != active {
			connected := make(map[string]struct{})
			for _, unitID := range dispatch.Connected(ops) {
				connected[unitID] = struct{}{}
			}
			for _, ref := range refs {
				if _, added := connected[ref.ID]; added {
					continue
				}
				if active {
					err = updateUnit(tx, ref, map[string]interface{}{"active_incident_id": id})
				} else {
					err = repointUnit(tx, ref, id)
				}
				if err != nil {
					return err
				}
			}
		}

		incident, err = findIncident(tx, id)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrIncidentNotFound)
	}

	s.Broadcast.Emit(EventUpdateActiveIncident, incident)
	return incident, nil
}

// 5. AssignUnit adds a unit to the incident
func (s *IncidentService) AssignUnit(ctx context.Context, incidentID, unitID string) (*models.LeoIncident, error) {
	var incident *models.LeoIncident
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findIncident(tx, incidentID)
		if err != nil {
			return err
		}
		ref, err := findUnit(tx, unitID)
		if err != nil {
			return err
		}
		for _, iu := range current.UnitsInvolved {
			if iu.UnitID == unitID {
				return code.New(code.ErrUnitAlreadyAssigned)
			}
		}
		if err := connectIncidentUnit(tx, current, ref); err != nil {
			return err
		}
		if err := touchIncident(tx, incidentID); err != nil {
			return err
		}

		incident, err = findIncident(tx, incidentID)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrIncidentNotFound)
	}

	s.Broadcast.Emit(EventUpdateActiveIncident, incident)
	return incident, nil
}

// 6. UnassignUnit removes the unit and repoints it at its next active incident
func (s *IncidentService) UnassignUnit(ctx context.Context, incidentID, unitID string) (*models.LeoIncident, error) {
	var incident *models.LeoIncident
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findIncident(tx, incidentID)
		if err != nil {
			return err
		}

		var link *models.IncidentInvolvedUnit
		for i := range current.UnitsInvolved {
			if current.UnitsInvolved[i].UnitID == unitID {
				link = &current.UnitsInvolved[i]
			}
		}
		if link == nil {
			return code.New(code.ErrUnitNotAssigned)
		}
		if err := disconnectIncidentUnit(tx, incidentID, UnitRef{Kind: link.UnitKind, ID: link.UnitID}); err != nil {
			return err
		}
		if err := touchIncident(tx, incidentID); err != nil {
			return err
		}

		incident, err = findIncident(tx, incidentID)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrIncidentNotFound)
	}

	s.Broadcast.Emit(EventUpdateActiveIncident, incident)
	return incident, nil
}

// 7. EndIncident marks the incident inactive and releases its units
func (s *IncidentService) EndIncident(ctx context.Context, id string) (*models.LeoIncident, error) {
	var incident *models.LeoIncident
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findIncident(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&models.LeoIncident{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
			return err
		}
		if err := releaseIncidentPointers(tx, []string{id}); err != nil {
			return err
		}

		var err error
		incident, err = findIncident(tx, id)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrIncidentNotFound)
	}

	s.Broadcast.Emit(EventUpdateActiveIncident, incident)
	return incident, nil
}

// 8. DeleteIncident deletes an incident
func (s *IncidentService) DeleteIncident(ctx context.Context, id string) error {
	var incident *models.LeoIncident
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if incident, err = findIncident(tx, id); err != nil {
			return err
		}
		// deactivate first so the repoint query cannot pick this incident
		if err := tx.Model(&models.LeoIncident{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
			return err
		}
		if err := releaseIncidentPointers(tx, []string{id}); err != nil {
			return err
		}
		if err := tx.Where("incident_id = ?", id).Delete(&models.IncidentInvolvedUnit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.LeoIncident{}, "id = ?", id).Error
	})
	if err != nil {
		return dbErr(err, code.ErrIncidentNotFound)
	}

	incident.IsActive = false
	s.Broadcast.Emit(EventUpdateActiveIncident, incident)
	return nil
}

// 9. EndStaleIncidents deactivates active incidents untouched since the
// cutoff and releases the units that pointed at them
func (s *IncidentService) EndStaleIncidents(ctx context.Context, filter *dispatch.InactivityFilter) (int64, error) {
	if filter == nil {
		return 0, nil
	}

	var ids []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.LeoIncident{}).Where("is_active = ?", true).Scopes(filter.StaleScope()).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Model(&models.LeoIncident{}).Where("id IN ?", ids).Update("is_active", false).Error; err != nil {
			return err
		}
		return releaseIncidentPointers(tx, ids)
	})
	if err != nil {
		return 0, dbErr(err, code.ErrIncidentNotFound)
	}
	return int64(len(ids)), nil
}

func findIncident(tx *gorm.DB, id string) (*models.LeoIncident, error) {
	var incident models.LeoIncident
	if err := tx.Preload("UnitsInvolved").First(&incident, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, code.ErrIncidentNotFound)
	}
	return &incident, nil
}

// touchIncident bumps updated_at so assignment changes count as activity
func touchIncident(tx *gorm.DB, id string) error {
	return tx.Model(&models.LeoIncident{}).Where("id = ?", id).Update("updated_at", time.Now()).Error
}

// connectIncidentUnit links the unit; an active incident also becomes the unit's current one
func connectIncidentUnit(tx *gorm.DB, incident *models.LeoIncident, ref UnitRef) error {
	link := models.IncidentInvolvedUnit{IncidentID: incident.ID, UnitKind: ref.Kind, UnitID: ref.ID}
	if err := tx.Create(&link).Error; err != nil {
		return err
	}
	if !incident.IsActive {
		return nil
	}
	return updateUnit(tx, ref, map[string]interface{}{"active_incident_id": incident.ID})
}

func disconnectIncidentUnit(tx *gorm.DB, incidentID string, ref UnitRef) error {
	if err := tx.Where("incident_id = ? AND unit_id = ?", incidentID, ref.ID).Delete(&models.IncidentInvolvedUnit{}).Error; err != nil {
		return err
	}
	return repointUnit(tx, ref, incidentID)
}

// repointUnit moves a unit that points at releasedID to the most recent
// other active incident listing it, or to none. Units pointing elsewhere
// are left alone.
func repointUnit(tx *gorm.DB, ref UnitRef, releasedID string) error {
	model, err := unitModel(ref.Kind)
	if err != nil {
		return err
	}

	var next interface{}
	var other models.LeoIncident
	err = tx.Model(&models.LeoIncident{}).
		Joins("JOIN incident_involved_units ON incident_involved_units.incident_id = leo_incidents.id").
		Where("incident_involved_units.unit_id = ? AND leo_incidents.is_active = ? AND leo_incidents.id <> ?", ref.ID, true, releasedID).
		Order("leo_incidents.updated_at DESC").
		Order("leo_incidents.created_at DESC").
		Take(&other).Error
	switch {
	case err == nil:
		next = other.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	return tx.Model(model).Where("id = ? AND active_incident_id = ?", ref.ID, releasedID).Update("active_incident_id", next).Error
}

// releaseIncidentPointers repoints every unit that points at one of the incidents
func releaseIncidentPointers(tx *gorm.DB, incidentIDs []string) error {
	for _, kind := range models.UnitKinds {
		model, err := unitModel(kind)
		if err != nil {
			return err
		}
		var units []struct {
			ID               string
			ActiveIncidentID string
		}
		if err := tx.Model(model).Select("id", "active_incident_id").Where("active_incident_id IN ?", incidentIDs).Scan(&units).Error; err != nil {
			return err
		}
		for _, u := range units {
			if err := repointUnit(tx, UnitRef{Kind: kind, ID: u.ID}, u.ActiveIncidentID); err != nil {
				return err
			}
		}
	}
	return nil
}
