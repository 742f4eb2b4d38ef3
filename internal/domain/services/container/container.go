package container

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/mqtt"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/socket"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 推送通道
	hub       *socket.Hub
	publisher *mqtt.Publisher

	// 基础服务
	authService      services.InterfaceAuthService
	settingsService  services.InterfaceCadSettingsService
	valueService     services.InterfaceValueService
	broadcastService *services.BroadcastService
	webhookService   services.InterfaceWebhookService

	// 业务服务
	unitService     services.InterfaceUnitService
	callService     services.InterfaceCallService
	towService      services.InterfaceTowService
	incidentService services.InterfaceIncidentService
	warrantService  services.InterfaceWarrantService
	dispatchService services.InterfaceDispatchService
	citizenService  services.InterfaceCitizenService
	recordService   services.InterfaceRecordService

	mu      sync.RWMutex
	workers sync.WaitGroup
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接, 不可用时不使用缓存和队列
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			Logger.Warning("Redis连接测试失败: %v，将不使用Redis", err)
			redisClient = nil
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hub = socket.NewHub()

	// MQTT 为可选的第二推送通道
	var publisher services.Publisher
	if c.config.MQTTEnabled() {
		c.publisher = mqtt.NewPublisher(c.config)
		if err := c.publisher.Connect(); err != nil {
			Logger.Warning("MQTT服务连接失败: %v", err)
		}
		publisher = c.publisher
	}

	c.broadcastService = services.NewBroadcastService(c.hub, publisher)
	c.webhookService = services.NewWebhookService(c.config, c.redis)

	c.authService = services.NewAuthService(c.db, c.config)
	c.settingsService = services.NewCadSettingsService(c.db, c.config, c.redis)
	c.valueService = services.NewValueService(c.db, c.config)

	c.unitService = services.NewUnitService(c.db, c.config, c.broadcastService, c.webhookService)
	c.callService = services.NewCallService(c.db, c.config, c.settingsService, c.broadcastService, c.webhookService)
	c.towService = services.NewTowService(c.db, c.config, c.settingsService, c.broadcastService)
	c.incidentService = services.NewIncidentService(c.db, c.config, c.settingsService, c.broadcastService)
	c.warrantService = services.NewWarrantService(c.db, c.config, c.settingsService, c.broadcastService, c.webhookService)
	c.dispatchService = services.NewDispatchService(
		c.db, c.config,
		c.settingsService,
		c.valueService,
		c.unitService,
		c.incidentService,
		c.broadcastService,
	)
	c.citizenService = services.NewCitizenService(c.db, c.config)
	c.recordService = services.NewRecordService(c.db, c.config)
}

// Start 启动推送中心和webhook队列消费者, ctx 取消时消费者退出
func (c *ServiceContainer) Start(ctx context.Context) {
	c.hub.Start()
	if c.redis != nil {
		c.workers.Add(1)
		go func() {
			defer c.workers.Done()
			c.webhookService.Run(ctx)
		}()
	}
}

// Close 关闭推送通道, 并等待 Start 启动的消费者在 ctx 取消后退出
func (c *ServiceContainer) Close() {
	c.hub.Stop()
	c.broadcastService.Close()
	c.workers.Wait()
	if c.publisher != nil {
		c.publisher.Disconnect()
	}
}

// Hub 返回websocket推送中心
func (c *ServiceContainer) Hub() *socket.Hub {
	return c.hub
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "redis":
		return c.redis
	case "hub":
		return c.hub
	case "auth":
		return c.authService
	case "settings":
		return c.settingsService
	case "value":
		return c.valueService
	case "broadcast":
		return c.broadcastService
	case "webhook":
		return c.webhookService
	case "unit":
		return c.unitService
	case "call":
		return c.callService
	case "tow":
		return c.towService
	case "incident":
		return c.incidentService
	case "warrant":
		return c.warrantService
	case "dispatch":
		return c.dispatchService
	case "citizen":
		return c.citizenService
	case "record":
		return c.recordService
	default:
		return nil
	}
}
