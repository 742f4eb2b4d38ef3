package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/app/routes"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/database"
)

// 压测参数, 请求数低于每用户的突发上限
const (
	concurrency = 10
	requests    = 15
)

var (
	server    *httptest.Server
	authToken string
)

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

// TestMain 启动内存中的服务并准备一个在岗警员
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	dir, err := os.MkdirTemp("", "cad-bench")
	if err != nil {
		fmt.Printf("创建临时目录失败: %v\n", err)
		os.Exit(1)
	}

	code, err := run(m, dir)
	os.RemoveAll(dir)
	if err != nil {
		fmt.Printf("准备压测环境失败: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(m *testing.M, dir string) (int, error) {
	cfg := &config.Config{
		EnvType:            "test",
		DBDriver:           "sqlite",
		DBName:             filepath.Join(dir, "bench"),
		CORSOrigin:         "*",
		JWTSecretKey:       "bench-secret",
		JWTExpirationHours: 1,
	}
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		return 0, err
	}
	defer pool.Close()
	if err := database.Migrate(pool.GetDB(), "alter"); err != nil {
		return 0, err
	}

	c := container.NewServiceContainer(pool.GetDB(), cfg, nil)
	defer c.Close()
	server = httptest.NewServer(routes.SetupRouter(c, cfg))
	defer server.Close()

	if err := seed(); err != nil {
		return 0, err
	}
	return m.Run(), nil
}

func post(method, path, token string, body interface{}) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequest(method, server.URL+"/api"+path, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s %s: %d", method, path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	var row struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &row); err != nil {
		return "", err
	}
	if row.Token != "" {
		return row.Token, nil
	}
	return row.ID, nil
}

// seed 注册所有者并让一个警员上岗
func seed() error {
	var err error
	authToken, err = post(http.MethodPost, "/auth/register", "", map[string]string{"username": "owner", "password": "password123"})
	if err != nil {
		return err
	}
	status, err := post(http.MethodPost, "/admin/statuses", authToken, map[string]string{"value": "10-8", "shouldDo": "SET_ON_DUTY"})
	if err != nil {
		return err
	}
	officer, err := post(http.MethodPost, "/leo", authToken, map[string]string{"callsign": "1A-10"})
	if err != nil {
		return err
	}
	_, err = post(http.MethodPut, "/units/"+officer+"/status", authToken, map[string]string{"status": status})
	return err
}

func newBenchmark() *APIBenchmark {
	return NewAPIBenchmark(server.URL+"/api", concurrency, requests, authToken)
}

// TestDispatchBoard 压测调度面板聚合
func TestDispatchBoard(t *testing.T) {
	result := newBenchmark().RunGET("/dispatch")
	result.PrintResult()

	assert.Empty(t, result.Errors)
	assert.Equal(t, requests, result.SuccessCount)
	assert.LessOrEqual(t, result.MinTime, result.MaxTime)
}

// TestCreate911Call 压测报警接口
func TestCreate911Call(t *testing.T) {
	result := newBenchmark().RunPOST("/911-calls", map[string]string{
		"location":    "Legion Square",
		"description": "Vehicle fire",
	})
	result.PrintResult()

	assert.Empty(t, result.Errors)
	assert.Equal(t, requests, result.SuccessCount)
}

// TestCachedValues 缓存的值列表
func TestCachedValues(t *testing.T) {
	result := newBenchmark().RunGET("/admin/values/PENAL_CODE")
	result.PrintResult()

	assert.Equal(t, requests, result.StatusCodes[http.StatusOK])
}

func TestBurstIsRateLimited(t *testing.T) {
	b := NewAPIBenchmark(server.URL+"/api", 4, 20, "")
	result := b.RunPOST("/auth/login", map[string]string{"username": "owner", "password": "wrong"})

	require.Empty(t, result.Errors)
	assert.Equal(t, 20, result.FailureCount)
	assert.Positive(t, result.StatusCodes[http.StatusTooManyRequests])
}
