package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/dispatch"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

type WarrantInput struct {
	CitizenID        string               `json:"citizenId" binding:"required"`
	Description      string               `json:"description"`
	Status           models.WarrantStatus `json:"status" binding:"required"`
	AssignedOfficers []string             `json:"assignedOfficers"`
}

// InterfaceWarrantService defines the warrant service interface.
// Create and update return the persisted warrant together with
// ErrWarrantApprovalRequired when activation waits for review.
type InterfaceWarrantService interface {
	ListWarrants(ctx context.Context, activeOnly bool) ([]models.Warrant, error)
	GetWarrant(ctx context.Context, id string) (*models.Warrant, error)
	CreateWarrant(ctx context.Context, in WarrantInput) (*models.Warrant, error)
	UpdateWarrant(ctx context.Context, id string, in WarrantInput) (*models.Warrant, error)
	ReviewWarrant(ctx context.Context, id string, accept bool) (*models.Warrant, error)
	DeleteWarrant(ctx context.Context, id string) error
	ExpireStaleWarrants(ctx context.Context, filter *dispatch.InactivityFilter) (int64, error)
}

type WarrantService struct {
	DB        *gorm.DB
	Config    *config.Config
	Settings  InterfaceCadSettingsService
	Broadcast InterfaceBroadcastService
	Webhook   InterfaceWebhookService
}

func NewWarrantService(db *gorm.DB, cfg *config.Config, settings InterfaceCadSettingsService, broadcast InterfaceBroadcastService, webhook InterfaceWebhookService) InterfaceWarrantService {
	return &WarrantService{
		DB:        db,
		Config:    cfg,
		Settings:  settings,
		Broadcast: broadcast,
		Webhook:   webhook,
	}
}

// 1. ListWarrants expires stale warrants, then lists them
func (s *WarrantService) ListWarrants(ctx context.Context, activeOnly bool) ([]models.Warrant, error) {
	if settings, err := s.Settings.GetSettings(ctx); err != nil {
		Logger.WithError(err).Warn("loading cad settings, stale warrants left active")
	} else {
		filter := dispatch.NewInactivityFilter(time.Now(), settings.Misc.ActiveWarrantsInactivityTimeout, dispatch.FieldUpdatedAt)
		if _, err := s.ExpireStaleWarrants(ctx, filter); err != nil {
			Logger.WithError(err).Warn("expiring stale warrants")
		}
	}

	var warrants []models.Warrant
	query := s.DB.WithContext(ctx).Preload("Citizen").Preload("AssignedOfficers").Order("created_at DESC")
	if activeOnly {
		query = query.Where("status = ?", models.WarrantStatusActive)
	}
	if err := query.Find(&warrants).Error; err != nil {
		return nil, dbErr(err, code.ErrWarrantNotFound)
	}
	return warrants, nil
}

// 2. GetWarrant loads a warrant
func (s *WarrantService) GetWarrant(ctx context.Context, id string) (*models.Warrant, error) {
	return findWarrant(s.DB.WithContext(ctx), id)
}

// 3. CreateWarrant stores the warrant. While approval is required an active
// warrant is kept inactive and pending, and the caller gets both the
// warrant and ErrWarrantApprovalRequired.
func (s *WarrantService) CreateWarrant(ctx context.Context, in WarrantInput) (*models.Warrant, error) {
	if !in.Status.Valid() {
		return nil, code.Newf(code.ErrValidation, "invalid warrant status %q", in.Status)
	}
	approval := s.Settings.IsFeatureEnabled(ctx, models.FeatureWarrantStatusApproval)

	row := models.Warrant{
		CitizenID:      in.CitizenID,
		Description:    in.Description,
		Status:         in.Status,
		ApprovalStatus: models.WarrantApprovalAccepted,
	}
	pending := false
	if approval {
		row.ApprovalStatus = models.WarrantApprovalPending
		if in.Status == models.WarrantStatusActive {
			row.Status = models.WarrantStatusInactive
			pending = true
		}
	}

	var warrant *models.Warrant
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCitizen(tx, in.CitizenID); err != nil {
			return err
		}
		refs, err := resolveUnits(tx, in.AssignedOfficers)
		if err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		for _, ref := range refs {
			if err := connectWarrantOfficer(tx, row.ID, ref); err != nil {
				return err
			}
		}

		warrant, err = findWarrant(tx, row.ID)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrWarrantNotFound)
	}

	s.Broadcast.Emit(EventUpdateActiveWarrant, warrant)
	if pending {
		s.notifyPending(ctx, warrant)
		return warrant, code.New(code.ErrWarrantApprovalRequired)
	}
	return warrant, nil
}

// 4. UpdateWarrant saves the fields; activating a warrant that is not accepted
// waits for review the same way creation does
func (s *WarrantService) UpdateWarrant(ctx context.Context, id string, in WarrantInput) (*models.Warrant, error) {
	if !in.Status.Valid() {
		return nil, code.Newf(code.ErrValidation, "invalid warrant status %q", in.Status)
	}
	approval := s.Settings.IsFeatureEnabled(ctx, models.FeatureWarrantStatusApproval)

	pending := false
	var warrant *models.Warrant
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findWarrant(tx, id)
		if err != nil {
			return err
		}
		if err := checkCitizen(tx, in.CitizenID); err != nil {
			return err
		}
		refs, err := resolveUnits(tx, in.AssignedOfficers)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"citizen_id":  in.CitizenID,
			"description": in.Description,
			"status":      in.Status,
		}
		if approval && in.Status == models.WarrantStatusActive && current.ApprovalStatus != models.WarrantApprovalAccepted {
			updates["status"] = models.WarrantStatusInactive
			updates["approval_status"] = models.WarrantApprovalPending
			pending = true
		}
		if err := tx.Model(&models.Warrant{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		kinds := make(map[string]UnitRef, len(refs))
		desired := make([]string, 0, len(refs))
		for _, ref := range refs {
			kinds[ref.ID] = ref
			desired = append(desired, ref.ID)
		}
		currentIDs := make([]string, 0, len(current.AssignedOfficers))
		for _, ao := range current.AssignedOfficers {
			currentIDs = append(currentIDs, ao.UnitID)
		}

		err = dispatch.ApplyOperations(dispatch.Reconcile(currentIDs, desired),
			func(unitID string) error {
				return tx.Where("warrant_id = ? AND unit_id = ?", id, unitID).Delete(&models.WarrantAssignedOfficer{}).Error
			},
			func(unitID string) error { return connectWarrantOfficer(tx, id, kinds[unitID]) },
		)
		if err != nil {
			return err
		}

		warrant, err = findWarrant(tx, id)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrWarrantNotFound)
	}

	s.Broadcast.Emit(EventUpdateActiveWarrant, warrant)
	if pending {
		s.notifyPending(ctx, warrant)
		return warrant, code.New(code.ErrWarrantApprovalRequired)
	}
	return warrant, nil
}

// 5. ReviewWarrant accepts (and activates) or declines a pending warrant
func (s *WarrantService) ReviewWarrant(ctx context.Context, id string, accept bool) (*models.Warrant, error) {
	approval, status := models.WarrantApprovalDeclined, models.WarrantStatusInactive
	if accept {
		approval, status = models.WarrantApprovalAccepted, models.WarrantStatusActive
	}

	var warrant *models.Warrant
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Warrant{}).
			Where("id = ? AND approval_status = ?", id, models.WarrantApprovalPending).
			Updates(map[string]interface{}{"approval_status": approval, "status": status})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if _, err := findWarrant(tx, id); err != nil {
				return err
			}
			return code.New(code.ErrWarrantNotPending)
		}

		var err error
		warrant, err = findWarrant(tx, id)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrWarrantNotFound)
	}

	s.Broadcast.Emit(EventUpdateActiveWarrant, warrant)
	return warrant, nil
}

// 6. DeleteWarrant deletes a warrant
func (s *WarrantService) DeleteWarrant(ctx context.Context, id string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findWarrant(tx, id); err != nil {
			return err
		}
		if err := tx.Where("warrant_id = ?", id).Delete(&models.WarrantAssignedOfficer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Warrant{}, "id = ?", id).Error
	})
	if err != nil {
		return dbErr(err, code.ErrWarrantNotFound)
	}

	s.Broadcast.Emit(EventUpdateActiveWarrant, map[string]string{"id": id})
	return nil
}

// 7. ExpireStaleWarrants sets active warrants untouched since the cutoff inactive
func (s *WarrantService) ExpireStaleWarrants(ctx context.Context, filter *dispatch.InactivityFilter) (int64, error) {
	if filter == nil {
		return 0, nil
	}
	res := s.DB.WithContext(ctx).Model(&models.Warrant{}).
		Where("status = ?", models.WarrantStatusActive).
		Scopes(filter.StaleScope()).
		Update("status", models.WarrantStatusInactive)
	if res.Error != nil {
		return 0, dbErr(res.Error, code.ErrWarrantNotFound)
	}
	return res.RowsAffected, nil
}

func (s *WarrantService) notifyPending(ctx context.Context, w *models.Warrant) {
	name := w.CitizenID
	if w.Citizen != nil {
		name = w.Citizen.Name + " " + w.Citizen.Surname
	}
	s.Webhook.Send(ctx, WebhookWarrant, fmt.Sprintf("Warrant for %s: %s", name, w.Description))
}

func findWarrant(tx *gorm.DB, id string) (*models.Warrant, error) {
	var w models.Warrant
	if err := tx.Preload("Citizen").Preload("AssignedOfficers").First(&w, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, code.ErrWarrantNotFound)
	}
	return &w, nil
}

func connectWarrantOfficer(tx *gorm.DB, warrantID string, ref UnitRef) error {
	link := models.WarrantAssignedOfficer{WarrantID: warrantID, UnitKind: ref.Kind, UnitID: ref.ID}
	return tx.Create(&link).Error
}

func checkCitizen(tx *gorm.DB, id string) error {
	if id == "" {
		return code.New(code.ErrCitizenNotFound)
	}
	var n int64
	if err := tx.Model(&models.Citizen{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return code.New(code.ErrCitizenNotFound)
	}
	return nil
}
