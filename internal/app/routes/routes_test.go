package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/app/middleware"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/database"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type api struct {
	t *testing.T
	r *gin.Engine
}

func newAPI(t *testing.T) *api {
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
	require.NoError(t, database.Migrate(db, "alter"))

	cfg := &config.Config{
		EnvType:            "LOCAL",
		DBDriver:           "sqlite",
		CORSOrigin:         "*",
		JWTSecretKey:       "routes-secret",
		JWTExpirationHours: 1,
	}
	c := container.NewServiceContainer(db, cfg, nil)
	t.Cleanup(c.Close)

	middleware.PurgeCache()
	t.Cleanup(middleware.PurgeCache)
	return &api{t: t, r: SetupRouter(c, cfg)}
}

func (a *api) call(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

// register returns the token of a new account
func (a *api) register(username string) string {
	a.t.Helper()
	w, env := a.call(http.MethodPost, "/api/auth/register", "", gin.H{"username": username, "password": "password123"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &res))
	return res.Token
}

func id(t *testing.T, env envelope) string {
	t.Helper()
	var row struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &row))
	require.NotEmpty(t, row.ID)
	return row.ID
}

func TestPublicRoutes(t *testing.T) {
	a := newAPI(t)

	w, env := a.call(http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, code.ErrSuccess, env.Code)

	w, _ = a.call(http.MethodGet, "/api/dispatch", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = a.call(http.MethodPost, "/api/auth/login", "", gin.H{"username": "nobody"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, code.ErrBind, env.Code)
}

func TestPermissionGateRunsBeforeBinding(t *testing.T) {
	a := newAPI(t)
	a.register("owner")
	civ := a.register("civilian")

	// an invalid body still gets 403, not a bind error
	w, env := a.call(http.MethodPost, "/api/admin/statuses", civ, gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, code.ErrForbidden, env.Code)

	// anyone can call 911, only responders read the queue
	w, _ = a.call(http.MethodPost, "/api/911-calls", civ, gin.H{"location": "Legion Square", "description": "Shots fired"})
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = a.call(http.MethodGet, "/api/911-calls", civ, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUnitGoesOnDutyAndShowsOnBoard(t *testing.T) {
	a := newAPI(t)
	owner := a.register("owner")

	w, env := a.call(http.MethodPost, "/api/admin/statuses", owner, gin.H{"value": "10-8", "shouldDo": "SET_ON_DUTY", "position": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	onDuty := id(t, env)

	w, env = a.call(http.MethodPost, "/api/leo", owner, gin.H{"callsign": "1A-10"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	officer := id(t, env)

	w, _ = a.call(http.MethodPut, "/api/units/"+officer+"/status", owner, gin.H{"status": onDuty})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = a.call(http.MethodGet, "/api/dispatch", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board struct {
		Officers []struct {
			ID       string `json:"id"`
			Callsign string `json:"callsign"`
		} `json:"officers"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &board))
	require.Len(t, board.Officers, 1)
	assert.Equal(t, "1A-10", board.Officers[0].Callsign)

	// a lone unit cannot be uncombined
	w, env = a.call(http.MethodPost, "/api/units/"+officer+"/uncombine", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, code.ErrInvalidUnitKind, env.Code)
}

func TestValueCachePurgedOnMutation(t *testing.T) {
	a := newAPI(t)
	owner := a.register("owner")

	w, env := a.call(http.MethodGet, "/api/admin/values/FLAG", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.JSONEq(t, "[]", string(env.Data))

	w, _ = a.call(http.MethodGet, "/api/admin/values/FLAG", owner, nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w, _ = a.call(http.MethodPost, "/api/admin/values/FLAG", owner, gin.H{"value": "Armed"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = a.call(http.MethodGet, "/api/admin/values/FLAG", owner, nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	var values []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &values))
	assert.Len(t, values, 1)
}

func TestWarrantNeedsApproval(t *testing.T) {
	a := newAPI(t)
	owner := a.register("owner")

	w, _ := a.call(http.MethodPut, "/api/admin/features/WARRANT_STATUS_APPROVAL", owner, gin.H{"enabled": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := a.call(http.MethodPost, "/api/citizens", owner, gin.H{"name": "Trevor", "surname": "Philips"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	citizen := id(t, env)

	w, env = a.call(http.MethodPost, "/api/warrants", owner, gin.H{"citizenId": citizen, "status": "ACTIVE"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, code.ErrWarrantApprovalRequired, env.Code)
	var warrant struct {
		ID             string `json:"id"`
		Status         string `json:"status"`
		ApprovalStatus string `json:"approvalStatus"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &warrant))
	assert.Equal(t, "INACTIVE", warrant.Status)
	assert.Equal(t, "PENDING", warrant.ApprovalStatus)

	w, env = a.call(http.MethodPost, "/api/warrants/"+warrant.ID+"/review", owner, gin.H{"accept": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &warrant))
	assert.Equal(t, "ACTIVE", warrant.Status)
}
