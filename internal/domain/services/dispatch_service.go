package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/dispatch"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

// DispatchData is the dispatch board. Combined units are listed with the
// solo units of their side.
type DispatchData struct {
	Officers          []dispatch.Unit            `json:"officers"`
	Deputies          []dispatch.Unit            `json:"deputies"`
	ActiveIncidents   []models.LeoIncident       `json:"activeIncidents"`
	ActiveDispatchers []models.ActiveDispatchers `json:"activeDispatchers"`
}

// InterfaceDispatchService defines the dispatch board service interface
type InterfaceDispatchService interface {
	GetDispatchData(ctx context.Context) (*DispatchData, error)
	SetDispatchState(ctx context.Context, userID string, active bool) ([]models.ActiveDispatchers, error)
	Heartbeat(ctx context.Context, userID string) error
}

type DispatchService struct {
	DB        *gorm.DB
	Config    *config.Config
	Settings  InterfaceCadSettingsService
	Values    InterfaceValueService
	Units     InterfaceUnitService
	Incidents InterfaceIncidentService
	Broadcast InterfaceBroadcastService
}

func NewDispatchService(
	db *gorm.DB,
	cfg *config.Config,
	settings InterfaceCadSettingsService,
	values InterfaceValueService,
	units InterfaceUnitService,
	incidents InterfaceIncidentService,
	broadcast InterfaceBroadcastService,
) InterfaceDispatchService {
	return &DispatchService{
		DB:        db,
		Config:    cfg,
		Settings:  settings,
		Values:    values,
		Units:     units,
		Incidents: incidents,
		Broadcast: broadcast,
	}
}

// 1. GetDispatchData builds the board. Any failed read fails the whole
// call; expiry writes are awaited but their errors are only logged.
func (s *DispatchService) GetDispatchData(ctx context.Context) (*DispatchData, error) {
	settings, err := s.Settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	offDuty, err := s.Values.GetOffDutyStatus(ctx)
	if err != nil {
		return nil, err
	}

	// 1. inactivity filters
	now := time.Now()
	unitFilter := dispatch.NewInactivityFilter(now, settings.Misc.UnitInactivityTimeout, dispatch.FieldLastStatusChange)
	dispatcherFilter := dispatch.NewInactivityFilter(now, settings.Misc.ActiveDispatchersInactivityTimeout, dispatch.FieldUpdatedAt)
	incidentFilter := dispatch.NewInactivityFilter(now, settings.Misc.IncidentInactivityTimeout, dispatch.FieldUpdatedAt)
	dispatchersOn := settings.Features[models.FeatureActiveDispatchers]
	incidentsOn := settings.Features[models.FeatureActiveIncidents]

	// 2. concurrent reads
	var (
		officers    []models.Officer
		deputies    []models.EmsFdDeputy
		combinedLeo []models.CombinedLeoUnit
		combinedEms []models.CombinedEmsFdUnit
		dispatchers []models.ActiveDispatchers
		incidents   []models.LeoIncident
	)
	g, gctx := errgroup.WithContext(ctx)
	db := func() *gorm.DB { return s.DB.WithContext(gctx) }

	g.Go(func() error {
		return db().Preload("Status").Scopes(onDutyScope, soloScope("combined_leo_unit_id")).
			Order("callsign").Find(&officers).Error
	})
	g.Go(func() error {
		return db().Preload("Status").Scopes(onDutyScope, soloScope("combined_ems_fd_unit_id")).
			Order("callsign").Find(&deputies).Error
	})
	g.Go(func() error {
		return db().Preload("Status").Preload("Officers").Scopes(onDutyScope).
			Order("callsign").Find(&combinedLeo).Error
	})
	g.Go(func() error {
		return db().Preload("Status").Preload("Deputies").Scopes(onDutyScope).
			Order("callsign").Find(&combinedEms).Error
	})
	if dispatchersOn {
		g.Go(func() error {
			return db().Preload("User").Scopes(dispatcherFilter.FreshScope()).
				Order("created_at").Find(&dispatchers).Error
		})
	}
	if incidentsOn {
		g.Go(func() error {
			return db().Preload("UnitsInvolved").Where("is_active = ?", true).
				Scopes(incidentFilter.FreshScope()).Order("case_number DESC").Find(&incidents).Error
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dbErr(err, code.ErrRecordNotFound)
	}

	data := &DispatchData{
		Officers:          make([]dispatch.Unit, 0, len(officers)+len(combinedLeo)),
		Deputies:          make([]dispatch.Unit, 0, len(deputies)+len(combinedEms)),
		ActiveIncidents:   incidents,
		ActiveDispatchers: dispatchers,
	}
	for _, o := range officers {
		data.Officers = append(data.Officers, dispatch.FromOfficer(o))
	}
	for _, c := range combinedLeo {
		data.Officers = append(data.Officers, dispatch.FromCombinedLeo(c))
	}
	for _, d := range deputies {
		data.Deputies = append(data.Deputies, dispatch.FromDeputy(d))
	}
	for _, c := range combinedEms {
		data.Deputies = append(data.Deputies, dispatch.FromCombinedEmsFd(c))
	}
	if data.ActiveIncidents == nil {
		data.ActiveIncidents = []models.LeoIncident{}
	}
	if data.ActiveDispatchers == nil {
		data.ActiveDispatchers = []models.ActiveDispatchers{}
	}

	// 3. expiry writes, errors are only logged
	s.expire(ctx, unitFilter, incidentFilter, dispatcherFilter, offDuty, data)

	// 4. read time demotion of stale units
	for i := range data.Officers {
		dispatch.NormalizeUnit(&data.Officers[i], unitFilter, offDuty, now)
	}
	for i := range data.Deputies {
		dispatch.NormalizeUnit(&data.Deputies[i], unitFilter, offDuty, now)
	}
	return data, nil
}

func (s *DispatchService) expire(ctx context.Context, units, incidents, dispatchers *dispatch.InactivityFilter, offDuty *models.StatusValue, data *DispatchData) {
	if offDuty != nil && anyStale(units, data.Officers, data.Deputies) {
		if _, err := s.Units.SetOffDutyByInactivity(ctx, units, offDuty); err != nil {
			Logger.WithError(err).Warn("setting inactive units off duty")
		}
	}
	if incidents != nil {
		if _, err := s.Incidents.EndStaleIncidents(ctx, incidents); err != nil {
			Logger.WithError(err).Warn("ending stale incidents")
		}
	}
	if dispatchers != nil {
		err := s.DB.WithContext(ctx).Scopes(dispatchers.StaleScope()).Delete(&models.ActiveDispatchers{}).Error
		if err != nil {
			Logger.WithError(err).Warn("removing inactive dispatchers")
		}
	}
}

// 2. SetDispatchState marks the dispatcher active or inactive. A no-op with the feature disabled.
func (s *DispatchService) SetDispatchState(ctx context.Context, userID string, active bool) ([]models.ActiveDispatchers, error) {
	if !s.Settings.IsFeatureEnabled(ctx, models.FeatureActiveDispatchers) {
		return s.activeDispatchers(ctx)
	}

	db := s.DB.WithContext(ctx)
	var err error
	if active {
		row := models.ActiveDispatchers{UserID: userID}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Create(&row).Error
	} else {
		err = db.Where("user_id = ?", userID).Delete(&models.ActiveDispatchers{}).Error
	}
	if err != nil {
		return nil, dbErr(err, code.ErrRecordNotFound)
	}

	list, err := s.activeDispatchers(ctx)
	if err != nil {
		return nil, err
	}
	s.Broadcast.Emit(EventUpdateDispatchersState, list)
	return list, nil
}

// 3. Heartbeat keeps an active dispatcher from expiring
func (s *DispatchService) Heartbeat(ctx context.Context, userID string) error {
	err := s.DB.WithContext(ctx).Model(&models.ActiveDispatchers{}).
		Where("user_id = ?", userID).
		Update("updated_at", time.Now()).Error
	return dbErr(err, code.ErrRecordNotFound)
}

func (s *DispatchService) activeDispatchers(ctx context.Context) ([]models.ActiveDispatchers, error) {
	list := []models.ActiveDispatchers{}
	if err := s.DB.WithContext(ctx).Preload("User").Order("created_at").Find(&list).Error; err != nil {
		return nil, dbErr(err, code.ErrRecordNotFound)
	}
	return list, nil
}

// onDutyScope keeps units holding a status that is not an off duty one
func onDutyScope(db *gorm.DB) *gorm.DB {
	offDuty := db.Session(&gorm.Session{NewDB: true}).Model(&models.StatusValue{}).
		Select("id").Where("should_do = ?", models.ShouldDoSetOffDuty)
	return db.Where("status_id IS NOT NULL AND status_id NOT IN (?)", offDuty)
}

func soloScope(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column + " IS NULL")
	}
}

func anyStale(filter *dispatch.InactivityFilter, lists ...[]dispatch.Unit) bool {
	for _, list := range lists {
		for _, u := range list {
			if filter.IsStale(u.LastStatusChangeTimestamp) {
				return true
			}
		}
	}
	return false
}
