package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/dispatch"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

type CallInput struct {
	Name            string   `json:"name"`
	Location        string   `json:"location" binding:"required"`
	Postal          string   `json:"postal"`
	Description     string   `json:"description"`
	SituationCodeID *string  `json:"situationCodeId"`
	AssignedUnits   []string `json:"assignedUnits"`
}

// InterfaceCallService defines the 911 call service interface
type InterfaceCallService interface {
	ListCalls(ctx context.Context, includeEnded bool) ([]models.Call911, error)
	GetCall(ctx context.Context, id string) (*models.Call911, error)
	CreateCall(ctx context.Context, creatorID *string, in CallInput) (*models.Call911, error)
	UpdateCall(ctx context.Context, id string, in CallInput) (*models.Call911, error)
	AssignUnit(ctx context.Context, callID, unitID string) (*models.Call911, error)
	UnassignUnit(ctx context.Context, callID, unitID string) (*models.Call911, error)
	EndCall(ctx context.Context, id string) (*models.Call911, error)
	DeleteCall(ctx context.Context, id string) error
	EndStaleCalls(ctx context.Context, filter *dispatch.InactivityFilter) (int64, error)
}

// CallService manages 911 calls and the units working them
type CallService struct {
	DB        *gorm.DB
	Config    *config.Config
	Settings  InterfaceCadSettingsService
	Broadcast InterfaceBroadcastService
	Webhook   InterfaceWebhookService
}

func NewCallService(db *gorm.DB, cfg *config.Config, settings InterfaceCadSettingsService, broadcast InterfaceBroadcastService, webhook InterfaceWebhookService) InterfaceCallService {
	return &CallService{
		DB:        db,
		Config:    cfg,
		Settings:  settings,
		Broadcast: broadcast,
		Webhook:   webhook,
	}
}

// 1. ListCalls ends stale calls first, so expired calls never show as active
func (s *CallService) ListCalls(ctx context.Context, includeEnded bool) ([]models.Call911, error) {
	if settings, err := s.Settings.GetSettings(ctx); err != nil {
		Logger.WithError(err).Warn("loading cad settings, stale 911 calls left open")
	} else {
		filter := dispatch.NewInactivityFilter(time.Now(), settings.Misc.CallInactivityTimeout, dispatch.FieldUpdatedAt)
		if _, err := s.EndStaleCalls(ctx, filter); err != nil {
			Logger.WithError(err).Warn("ending stale 911 calls")
		}
	}

	query := s.DB.WithContext(ctx).Preload("AssignedUnits").Preload("SituationCode").Order("created_at DESC")
	if !includeEnded {
		query = query.Where("ended = ?", false)
	}

	var calls []models.Call911
	if err := query.Find(&calls).Error; err != nil {
		return nil, dbErr(err, code.ErrCallNotFound)
	}
	return calls, nil
}

// 2. GetCall loads a call with its units
func (s *CallService) GetCall(ctx context.Context, id string) (*models.Call911, error) {
	return findCall(s.DB.WithContext(ctx), id)
}

// 3. CreateCall validates every assigned unit before anything is written
func (s *CallService) CreateCall(ctx context.Context, creatorID *string, in CallInput) (*models.Call911, error) {
	if !s.Settings.IsFeatureEnabled(ctx, models.FeatureCalls911) {
		return nil, code.New(code.ErrFeatureDisabled)
	}
	if err := validateCallInput(in); err != nil {
		return nil, err
	}

	var call *models.Call911
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkSituationCode(tx, in.SituationCodeID); err != nil {
			return err
		}
		refs, err := resolveUnits(tx, in.AssignedUnits)
		if err != nil {
			return err
		}

		row := models.Call911{
			Name:            in.Name,
			Location:        in.Location,
			Postal:          in.Postal,
			Description:     in.Description,
			SituationCodeID: in.SituationCodeID,
			CreatorID:       creatorID,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		for _, ref := range refs {
			if err := connectCallUnit(tx, row.ID, ref); err != nil {
				return err
			}
		}

		call, err = findCall(tx, row.ID)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrCallNotFound)
	}

	s.Broadcast.Emit(EventCreate911Call, call)
	s.Webhook.Send(ctx, WebhookCall911, fmt.Sprintf("%s at %s %s", call.Description, call.Location, call.Postal))
	return call, nil
}

// 4. UpdateCall reconciles the assigned units in the same transaction as the fields
func (s *CallService) UpdateCall(ctx context.Context, id string, in CallInput) (*models.Call911, error) {
	if err := validateCallInput(in); err != nil {
		return nil, err
	}

	var call *models.Call911
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findCall(tx, id)
		if err != nil {
			return err
		}
		if current.Ended {
			return code.New(code.ErrCallAlreadyEnded)
		}
		if err := checkSituationCode(tx, in.SituationCodeID); err != nil {
			return err
		}
		refs, err := resolveUnits(tx, in.AssignedUnits)
		if err != nil {
			return err
		}

		err = tx.Model(&models.Call911{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":              in.Name,
			"location":          in.Location,
			"postal":            in.Postal,
			"description":       in.Description,
			"situation_code_id": in.SituationCodeID,
		}).Error
		if err != nil {
			return err
		}

		kinds := make(map[string]UnitRef, len(refs))
		desired := make([]string, 0, len(refs))
		for _, ref := range refs {
			kinds[ref.ID] = ref
			desired = append(desired, ref.ID)
		}
		currentIDs := make([]string, 0, len(current.AssignedUnits))
		for _, au := range current.AssignedUnits {
			kinds[au.UnitID] = UnitRef{Kind: au.UnitKind, ID: au.UnitID}
			currentIDs = append(currentIDs, au.UnitID)
		}

		err = dispatch.ApplyOperations(dispatch.Reconcile(currentIDs, desired),
			func(unitID string) error { return disconnectCallUnit(tx, id, kinds[unitID]) },
			func(unitID string) error { return connectCallUnit(tx, id, kinds[unitID]) },
		)
		if err != nil {
			return err
		}

		call, err = findCall(tx, id)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrCallNotFound)
	}

	s.Broadcast.Emit(EventUpdate911Call, call)
	return call, nil
}

// 5. AssignUnit attaches a unit and points it at the call
func (s *CallService) AssignUnit(ctx context.Context, callID, unitID string) (*models.Call911, error) {
	var call *models.Call911
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findCall(tx, callID)
		if err != nil {
			return err
		}
		if current.Ended {
			return code.New(code.ErrCallAlreadyEnded)
		}
		ref, err := findUnit(tx, unitID)
		if err != nil {
			return err
		}
		for _, au := range current.AssignedUnits {
			if au.UnitID == unitID {
				return code.New(code.ErrUnitAlreadyAssigned)
			}
		}
		if err := connectCallUnit(tx, callID, ref); err != nil {
			return err
		}
		if err := touchCall(tx, callID); err != nil {
			return err
		}

		call, err = findCall(tx, callID)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrCallNotFound)
	}

	s.Broadcast.Emit(EventUpdate911Call, call)
	return call, nil
}

// 6. UnassignUnit detaches a unit from the call
func (s *CallService) UnassignUnit(ctx context.Context, callID, unitID string) (*models.Call911, error) {
	var call *models.Call911
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findCall(tx, callID)
		if err != nil {
			return err
		}

		var link *models.AssignedUnit
		for i := range current.AssignedUnits {
			if current.AssignedUnits[i].UnitID == unitID {
				link = &current.AssignedUnits[i]
			}
		}
		if link == nil {
			return code.New(code.ErrUnitNotAssigned)
		}
		if err := disconnectCallUnit(tx, callID, UnitRef{Kind: link.UnitKind, ID: link.UnitID}); err != nil {
			return err
		}
		if err := touchCall(tx, callID); err != nil {
			return err
		}

		call, err = findCall(tx, callID)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrCallNotFound)
	}

	s.Broadcast.Emit(EventUpdate911Call, call)
	return call, nil
}

// 7. EndCall ends a call once. Ending it again is an error and broadcasts nothing.
func (s *CallService) EndCall(ctx context.Context, id string) (*models.Call911, error) {
	var call *models.Call911
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Call911{}).Where("id = ? AND ended = ?", id, false).Update("ended", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if _, err := findCall(tx, id); err != nil {
				return err
			}
			return code.New(code.ErrCallAlreadyEnded)
		}
		if err := releaseCallPointers(tx, []string{id}); err != nil {
			return err
		}

		var err error
		call, err = findCall(tx, id)
		return err
	})
	if err != nil {
		return nil, dbErr(err, code.ErrCallNotFound)
	}

	s.Broadcast.Emit(EventEnd911Call, call)
	return call, nil
}

// 8. DeleteCall deletes a call
func (s *CallService) DeleteCall(ctx context.Context, id string) error {
	var call *models.Call911
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if call, err = findCall(tx, id); err != nil {
			return err
		}
		if err := releaseCallPointers(tx, []string{id}); err != nil {
			return err
		}
		if err := tx.Where("call911_id = ?", id).Delete(&models.AssignedUnit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Call911{}, "id = ?", id).Error
	})
	if err != nil {
		return dbErr(err, code.ErrCallNotFound)
	}

	s.Broadcast.Emit(EventEnd911Call, call)
	return nil
}

// 9. EndStaleCalls ends active calls untouched since the cutoff
func (s *CallService) EndStaleCalls(ctx context.Context, filter *dispatch.InactivityFilter) (int64, error) {
	if filter == nil {
		return 0, nil
	}

	var ids []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Call911{}).Where("ended = ?", false).Scopes(filter.StaleScope()).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Model(&models.Call911{}).Where("id IN ?", ids).Update("ended", true).Error; err != nil {
			return err
		}
		return releaseCallPointers(tx, ids)
	})
	if err != nil {
		return 0, dbErr(err, code.ErrCallNotFound)
	}
	return int64(len(ids)), nil
}

func findCall(tx *gorm.DB, id string) (*models.Call911, error) {
	var call models.Call911
	if err := tx.Preload("AssignedUnits").Preload("SituationCode").First(&call, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, code.ErrCallNotFound)
	}
	return &call, nil
}

// touchCall marks the call as worked on so it is not ended as stale
func touchCall(tx *gorm.DB, id string) error {
	return tx.Model(&models.Call911{}).Where("id = ?", id).Update("updated_at", time.Now()).Error
}

func validateCallInput(in CallInput) error {
	if strings.TrimSpace(in.Location) == "" {
		return code.Newf(code.ErrValidation, "location is required")
	}
	return nil
}

func checkSituationCode(tx *gorm.DB, id *string) error {
	if id == nil {
		return nil
	}
	var n int64
	err := tx.Model(&models.StatusValue{}).Where("id = ? AND type = ?", *id, models.StatusValueTypeSituationCode).Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return code.New(code.ErrStatusNotFound)
	}
	return nil
}

// connectCallUnit links the unit and points it at the call
func connectCallUnit(tx *gorm.DB, callID string, ref UnitRef) error {
	link := models.AssignedUnit{Call911ID: callID, UnitKind: ref.Kind, UnitID: ref.ID}
	if err := tx.Create(&link).Error; err != nil {
		return err
	}
	return updateUnit(tx, ref, map[string]interface{}{"active_call_id": callID})
}

// disconnectCallUnit removes the link and clears the unit's pointer if it
// still points at this call
func disconnectCallUnit(tx *gorm.DB, callID string, ref UnitRef) error {
	if err := tx.Where("call911_id = ? AND unit_id = ?", callID, ref.ID).Delete(&models.AssignedUnit{}).Error; err != nil {
		return err
	}
	model, err := unitModel(ref.Kind)
	if err != nil {
		return err
	}
	return tx.Model(model).Where("id = ? AND active_call_id = ?", ref.ID, callID).Update("active_call_id", nil).Error
}

// releaseCallPointers clears active_call_id on every unit pointing at the calls
func releaseCallPointers(tx *gorm.DB, callIDs []string) error {
	for _, kind := range models.UnitKinds {
		model, err := unitModel(kind)
		if err != nil {
			return err
		}
		if err := tx.Model(model).Where("active_call_id IN ?", callIDs).Update("active_call_id", nil).Error; err != nil {
			return err
		}
	}
	return nil
}
