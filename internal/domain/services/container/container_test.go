package container

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		EnvType:            "LOCAL",
		DBDriver:           "sqlite",
		JWTSecretKey:       "container-secret",
		JWTExpirationHours: 1,
	}
}

func TestGetService(t *testing.T) {
	c := NewServiceContainer(newDB(t), testConfig(), nil)
	defer c.Close()

	assert.Implements(t, (*services.InterfaceDispatchService)(nil), c.GetService("dispatch"))
	assert.Implements(t, (*services.InterfaceWarrantService)(nil), c.GetService("warrant"))
	assert.Same(t, c.Hub(), c.GetService("hub"))
	assert.Nil(t, c.GetService("weather"))

	client, ok := c.GetService("redis").(*redis.Client)
	assert.True(t, ok)
	assert.Nil(t, client)
}

func TestUnreachableRedisIsDropped(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	c := NewServiceContainer(newDB(t), testConfig(), client)
	defer c.Close()

	got, _ := c.GetService("redis").(*redis.Client)
	assert.Nil(t, got)
}

func TestStartAndCloseDoNotLeak(t *testing.T) {
	db := newDB(t)
	// only goroutines started from here on are checked
	ignore := goleak.IgnoreCurrent()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ctx, cancel := context.WithCancel(context.Background())
	c := NewServiceContainer(db, testConfig(), client)
	require.NotNil(t, c.GetService("redis"))

	c.Start(ctx)
	cancel()
	c.Close()

	require.NoError(t, client.Close())
	mr.Close()
	goleak.VerifyNone(t, ignore)
}
