package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/dispatch"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
)

// newTestDB opens a private in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		EnvType:            "LOCAL",
		DBDriver:           "sqlite",
		JWTSecretKey:       "test-secret",
		JWTExpirationHours: 1,
	}
}

type emitted struct {
	Event   string
	Payload interface{}
}

// recorder is an InterfaceBroadcastService that keeps what was emitted
type recorder struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recorder) Emit(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{Event: event, Payload: payload})
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

type sentWebhook struct {
	Type        WebhookType
	Description string
}

// webhookRecorder is an InterfaceWebhookService that keeps what was sent
type webhookRecorder struct {
	mu   sync.Mutex
	sent []sentWebhook
}

func (w *webhookRecorder) Send(_ context.Context, typ WebhookType, description string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sent = append(w.sent, sentWebhook{Type: typ, Description: description})
}

func (w *webhookRecorder) Run(context.Context) {}

func (w *webhookRecorder) types() []WebhookType {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]WebhookType, 0, len(w.sent))
	for _, s := range w.sent {
		out = append(out, s.Type)
	}
	return out
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func timeout(minutes int) dispatch.Timeout { return dispatch.Timeout{Minutes: &minutes} }

func seedUser(t *testing.T, db *gorm.DB, username string, permissions ...string) *models.User {
	t.Helper()
	user := models.User{Username: username, Password: "x", Rank: models.RankUser, Permissions: permissions}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedStatus(t *testing.T, db *gorm.DB, value string, shouldDo models.ShouldDo) *models.StatusValue {
	t.Helper()
	status := models.StatusValue{Value: value, ShouldDo: shouldDo, Type: models.StatusValueTypeStatusCode}
	require.NoError(t, db.Create(&status).Error)
	return &status
}

func seedOfficer(t *testing.T, db *gorm.DB, callsign string, status *models.StatusValue) *models.Officer {
	t.Helper()
	now := time.Now()
	officer := models.Officer{UserID: uuid.NewString(), Callsign: callsign, LastStatusChangeTimestamp: &now}
	if status != nil {
		officer.StatusID = &status.ID
	}
	require.NoError(t, db.Create(&officer).Error)
	return &officer
}

func seedDeputy(t *testing.T, db *gorm.DB, callsign string, status *models.StatusValue) *models.EmsFdDeputy {
	t.Helper()
	now := time.Now()
	deputy := models.EmsFdDeputy{UserID: uuid.NewString(), Callsign: callsign, LastStatusChangeTimestamp: &now}
	if status != nil {
		deputy.StatusID = &status.ID
	}
	require.NoError(t, db.Create(&deputy).Error)
	return &deputy
}

func seedCitizen(t *testing.T, db *gorm.DB, name, surname string) *models.Citizen {
	t.Helper()
	citizen := models.Citizen{Name: name, Surname: surname, DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, db.Create(&citizen).Error)
	return &citizen
}

func seedValue(t *testing.T, db *gorm.DB, typ models.ValueType, value string) *models.Value {
	t.Helper()
	v := models.Value{Type: typ, Value: value}
	require.NoError(t, db.Create(&v).Error)
	return &v
}

func reloadOfficer(t *testing.T, db *gorm.DB, id string) models.Officer {
	t.Helper()
	var o models.Officer
	require.NoError(t, db.First(&o, "id = ?", id).Error)
	return o
}

// age moves a timestamp column into the past without touching updated_at
func age(t *testing.T, db *gorm.DB, model interface{}, id, column string, by time.Duration) {
	t.Helper()
	require.NoError(t, db.Model(model).Where("id = ?", id).UpdateColumn(column, time.Now().Add(-by)).Error)
}

// setTimeouts stores the misc settings directly
func setTimeouts(t *testing.T, settings InterfaceCadSettingsService, in UpdateSettingsInput) {
	t.Helper()
	_, err := settings.UpdateSettings(context.Background(), in)
	require.NoError(t, err)
}

func setFeature(t *testing.T, settings InterfaceCadSettingsService, feature models.Feature, enabled bool) {
	t.Helper()
	_, err := settings.SetFeature(context.Background(), feature, enabled)
	require.NoError(t, err)
}
