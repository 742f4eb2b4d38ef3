package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/dispatch"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

// CallKind selects between tow and taxi calls
type CallKind string

const (
	CallKindTow  CallKind = "tow"
	CallKindTaxi CallKind = "taxi"
)

type TowCallInput struct {
	Location    string `json:"location" binding:"required"`
	Postal      string `json:"postal"`
	Description string `json:"description"`
}

// InterfaceTowService defines the tow and taxi call service interface
type InterfaceTowService interface {
	ListCalls(ctx context.Context, kind CallKind, includeEnded bool) ([]models.TowCall, error)
	CreateCall(ctx context.Context, kind CallKind, creatorID *string, in TowCallInput) (*models.TowCall, error)
	UpdateCall(ctx context.Context, kind CallKind, id string, in TowCallInput) (*models.TowCall, error)
	AssignCitizen(ctx context.Context, kind CallKind, id, citizenID string) (*models.TowCall, error)
	EndCall(ctx context.Context, kind CallKind, id string) (*models.TowCall, error)
}

// TowService serves both kinds; taxi rows are TowCall values stored in their own table
type TowService struct {
	DB        *gorm.DB
	Config    *config.Config
	Settings  InterfaceCadSettingsService
	Broadcast InterfaceBroadcastService
}

func NewTowService(db *gorm.DB, cfg *config.Config, settings InterfaceCadSettingsService, broadcast InterfaceBroadcastService) InterfaceTowService {
	return &TowService{
		DB:        db,
		Config:    cfg,
		Settings:  settings,
		Broadcast: broadcast,
	}
}

type towKindInfo struct {
	feature models.Feature
	create  string
	update  string
	end     string
}

func kindInfo(kind CallKind) (towKindInfo, error) {
	switch kind {
	case CallKindTow:
		return towKindInfo{models.FeatureTow, EventCreateTowCall, EventUpdateTowCall, EventEndTowCall}, nil
	case CallKindTaxi:
		return towKindInfo{models.FeatureTaxi, EventCreateTaxiCall, EventUpdateTaxiCall, EventEndTaxiCall}, nil
	}
	return towKindInfo{}, code.New(code.ErrInvalidCallKind)
}

// callRow maps the kind onto the model gorm writes through
func callRow(kind CallKind, row *models.TowCall) interface{} {
	if kind == CallKindTaxi {
		return (*models.TaxiCall)(row)
	}
	return row
}

// 1. ListCalls ends stale calls of the kind, then lists them
func (s *TowService) ListCalls(ctx context.Context, kind CallKind, includeEnded bool) ([]models.TowCall, error) {
	if _, err := kindInfo(kind); err != nil {
		return nil, err
	}

	if settings, err := s.Settings.GetSettings(ctx); err != nil {
		Logger.WithError(err).Warnf("loading cad settings, stale %s calls left open", kind)
	} else {
		filter := dispatch.NewInactivityFilter(time.Now(), settings.Misc.CallInactivityTimeout, dispatch.FieldUpdatedAt)
		if err := s.endStale(ctx, kind, filter); err != nil {
			Logger.WithError(err).Warnf("ending stale %s calls", kind)
		}
	}

	query := s.DB.WithContext(ctx).Preload("AssignedUnit").Order("created_at DESC")
	if !includeEnded {
		query = query.Where("ended = ?", false)
	}

	switch kind {
	case CallKindTaxi:
		var rows []models.TaxiCall
		if err := query.Find(&rows).Error; err != nil {
			return nil, dbErr(err, code.ErrCallNotFound)
		}
		calls := make([]models.TowCall, len(rows))
		for i, r := range rows {
			calls[i] = models.TowCall(r)
		}
		return calls, nil
	default:
		var calls []models.TowCall
		if err := query.Find(&calls).Error; err != nil {
			return nil, dbErr(err, code.ErrCallNotFound)
		}
		return calls, nil
	}
}

// 2. CreateCall creates a tow or taxi call
func (s *TowService) CreateCall(ctx context.Context, kind CallKind, creatorID *string, in TowCallInput) (*models.TowCall, error) {
	info, err := kindInfo(kind)
	if err != nil {
		return nil, err
	}
	if !s.Settings.IsFeatureEnabled(ctx, info.feature) {
		return nil, code.New(code.ErrFeatureDisabled)
	}
	if strings.TrimSpace(in.Location) == "" {
		return nil, code.Newf(code.ErrValidation, "location is required")
	}

	call := models.TowCall{
		Location:    in.Location,
		Postal:      in.Postal,
		Description: in.Description,
		CreatorID:   creatorID,
	}
	if err := s.DB.WithContext(ctx).Create(callRow(kind, &call)).Error; err != nil {
		return nil, dbErr(err, code.ErrCallNotFound)
	}

	s.Broadcast.Emit(info.create, call)
	return &call, nil
}

// 3. UpdateCall updates a call
func (s *TowService) UpdateCall(ctx context.Context, kind CallKind, id string, in TowCallInput) (*models.TowCall, error) {
	info, err := kindInfo(kind)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Location) == "" {
		return nil, code.Newf(code.ErrValidation, "location is required")
	}

	call, err := s.update(ctx, kind, id, map[string]interface{}{
		"location":    in.Location,
		"postal":      in.Postal,
		"description": in.Description,
	})
	if err != nil {
		return nil, err
	}

	s.Broadcast.Emit(info.update, call)
	return call, nil
}

// 4. AssignCitizen sets the driver. An empty id unassigns.
func (s *TowService) AssignCitizen(ctx context.Context, kind CallKind, id, citizenID string) (*models.TowCall, error) {
	info, err := kindInfo(kind)
	if err != nil {
		return nil, err
	}

	var assigned interface{}
	if citizenID != "" {
		if err := checkCitizen(s.DB.WithContext(ctx), citizenID); err != nil {
			return nil, dbErr(err, code.ErrCitizenNotFound)
		}
		assigned = citizenID
	}

	call, err := s.update(ctx, kind, id, map[string]interface{}{"assigned_unit_id": assigned})
	if err != nil {
		return nil, err
	}

	s.Broadcast.Emit(info.update, call)
	return call, nil
}

// 5. EndCall ends a call once, like 911 calls
func (s *TowService) EndCall(ctx context.Context, kind CallKind, id string) (*models.TowCall, error) {
	info, err := kindInfo(kind)
	if err != nil {
		return nil, err
	}

	var call models.TowCall
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(callRow(kind, &call), "id = ?", id).Error; err != nil {
			return dbErr(err, code.ErrCallNotFound)
		}
		res := tx.Model(callRow(kind, &models.TowCall{})).Where("id = ? AND ended = ?", id, false).Update("ended", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return code.New(code.ErrCallAlreadyEnded)
		}
		return tx.Preload("AssignedUnit").First(callRow(kind, &call), "id = ?", id).Error
	})
	if err != nil {
		return nil, dbErr(err, code.ErrCallNotFound)
	}

	s.Broadcast.Emit(info.end, call)
	return &call, nil
}

// update rejects ended calls and returns the reloaded row
func (s *TowService) update(ctx context.Context, kind CallKind, id string, updates map[string]interface{}) (*models.TowCall, error) {
	var call models.TowCall
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(callRow(kind, &call), "id = ?", id).Error; err != nil {
			return err
		}
		if call.Ended {
			return code.New(code.ErrCallAlreadyEnded)
		}
		if err := tx.Model(callRow(kind, &models.TowCall{})).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Preload("AssignedUnit").First(callRow(kind, &call), "id = ?", id).Error
	})
	if err != nil {
		return nil, dbErr(err, code.ErrCallNotFound)
	}
	return &call, nil
}

func (s *TowService) endStale(ctx context.Context, kind CallKind, filter *dispatch.InactivityFilter) error {
	if filter == nil {
		return nil
	}
	return s.DB.WithContext(ctx).Model(callRow(kind, &models.TowCall{})).
		Where("ended = ?", false).
		Scopes(filter.StaleScope()).
		Update("ended", true).Error
}
