package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/dispatch"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

const (
	settingsCacheKey = "cad_settings"
	settingsCacheTTL = 5 * time.Minute
)

// UpdateSettingsInput carries the timeouts in minutes. A null, non-numeric
// or non-positive value disables that expiry.
type UpdateSettingsInput struct {
	CallInactivityTimeout              dispatch.Timeout `json:"callInactivityTimeout"`
	IncidentInactivityTimeout          dispatch.Timeout `json:"incidentInactivityTimeout"`
	UnitInactivityTimeout              dispatch.Timeout `json:"unitInactivityTimeout"`
	ActiveDispatchersInactivityTimeout dispatch.Timeout `json:"activeDispatchersInactivityTimeout"`
	ActiveWarrantsInactivityTimeout    dispatch.Timeout `json:"activeWarrantsInactivityTimeout"`
}

// CadSettings is what the settings endpoint returns and what is cached
type CadSettings struct {
	Misc     models.MiscCadSettings  `json:"miscCadSettings"`
	Features map[models.Feature]bool `json:"features"`
}

// InterfaceCadSettingsService defines the CAD settings service interface
type InterfaceCadSettingsService interface {
	GetSettings(ctx context.Context) (*CadSettings, error)
	UpdateSettings(ctx context.Context, in UpdateSettingsInput) (*CadSettings, error)
	IsFeatureEnabled(ctx context.Context, feature models.Feature) bool
	SetFeature(ctx context.Context, feature models.Feature, enabled bool) (*CadSettings, error)
}

// CadSettingsService reads through the Redis cache when one is configured
type CadSettingsService struct {
	DB     *gorm.DB
	Config *config.Config
	Redis  *redis.Client
}

func NewCadSettingsService(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) InterfaceCadSettingsService {
	return &CadSettingsService{
		DB:     db,
		Config: cfg,
		Redis:  redisClient,
	}
}

// 1. GetSettings reads the settings, through Redis when it is set
func (s *CadSettingsService) GetSettings(ctx context.Context) (*CadSettings, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	settings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, settings)
	return settings, nil
}

// 2. UpdateSettings saves the inactivity timeouts
func (s *CadSettingsService) UpdateSettings(ctx context.Context, in UpdateSettingsInput) (*CadSettings, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		misc, err := s.misc(tx)
		if err != nil {
			return err
		}
		return tx.Model(misc).Select("*").Omit("id", "created_at").Updates(models.MiscCadSettings{
			CallInactivityTimeout:              in.CallInactivityTimeout.Minutes,
			IncidentInactivityTimeout:          in.IncidentInactivityTimeout.Minutes,
			UnitInactivityTimeout:              in.UnitInactivityTimeout.Minutes,
			ActiveDispatchersInactivityTimeout: in.ActiveDispatchersInactivityTimeout.Minutes,
			ActiveWarrantsInactivityTimeout:    in.ActiveWarrantsInactivityTimeout.Minutes,
		}).Error
	})
	if err != nil {
		return nil, dbErr(err, code.ErrRecordNotFound)
	}

	s.invalidate(ctx)
	return s.GetSettings(ctx)
}

// 3. IsFeatureEnabled falls back to the feature default when settings cannot be read
func (s *CadSettingsService) IsFeatureEnabled(ctx context.Context, feature models.Feature) bool {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		Logger.WithError(err).Warnf("reading feature %s, using default", feature)
		return models.DefaultFeatures[feature]
	}
	if enabled, ok := settings.Features[feature]; ok {
		return enabled
	}
	return models.DefaultFeatures[feature]
}

// 4. SetFeature turns a feature on or off
func (s *CadSettingsService) SetFeature(ctx context.Context, feature models.Feature, enabled bool) (*CadSettings, error) {
	if !feature.Valid() {
		return nil, code.New(code.ErrInvalidFeature)
	}

	row := models.CadFeature{Feature: feature, IsEnabled: enabled}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "feature"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_enabled", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, dbErr(err, code.ErrRecordNotFound)
	}

	s.invalidate(ctx)
	return s.GetSettings(ctx)
}

// misc returns the single settings row, creating it on first use
func (s *CadSettingsService) misc(db *gorm.DB) (*models.MiscCadSettings, error) {
	var misc models.MiscCadSettings
	if err := db.Order("created_at").FirstOrCreate(&misc).Error; err != nil {
		return nil, err
	}
	return &misc, nil
}

func (s *CadSettingsService) load(ctx context.Context) (*CadSettings, error) {
	db := s.DB.WithContext(ctx)

	misc, err := s.misc(db)
	if err != nil {
		return nil, dbErr(err, code.ErrRecordNotFound)
	}

	var rows []models.CadFeature
	if err := db.Find(&rows).Error; err != nil {
		return nil, dbErr(err, code.ErrRecordNotFound)
	}

	features := make(map[models.Feature]bool, len(models.DefaultFeatures))
	for f, enabled := range models.DefaultFeatures {
		features[f] = enabled
	}
	for _, row := range rows {
		features[row.Feature] = row.IsEnabled
	}
	return &CadSettings{Misc: *misc, Features: features}, nil
}

func (s *CadSettingsService) fromCache(ctx context.Context) *CadSettings {
	if s.Redis == nil {
		return nil
	}
	raw, err := s.Redis.Get(ctx, settingsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			Logger.WithError(err).Warn("settings cache read failed")
		}
		return nil
	}

	var settings CadSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		Logger.WithError(err).Warn("settings cache entry is corrupt")
		return nil
	}
	return &settings
}

func (s *CadSettingsService) toCache(ctx context.Context, settings *CadSettings) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, settingsCacheKey, data, settingsCacheTTL).Err(); err != nil {
		Logger.WithError(err).Warn("settings cache write failed")
	}
}

func (s *CadSettingsService) invalidate(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, settingsCacheKey).Err(); err != nil {
		Logger.WithError(err).Warn("settings cache invalidate failed")
	}
}
