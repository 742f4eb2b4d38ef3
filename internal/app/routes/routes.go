package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/SnailyCAD/snaily-cadv4-sub004/docs"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/app/controllers"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/app/middleware"
	perm "github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/permissions"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
)

const (
	valuesPath   = "/api/admin/values"
	statusesPath = "/api/admin/statuses"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(serviceContainer *container.ServiceContainer, cfg *config.Config) *gin.Engine {
	if cfg.EnvType == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(cors.New(corsConfig(cfg)))

	// 初始化认证中间件
	middleware.InitAuthMiddleware(serviceContainer.GetService("auth").(services.InterfaceAuthService))

	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// websocket 推送
	r.GET("/ws", middleware.PathRateLimiter(20, 40), func(c *gin.Context) {
		serviceContainer.Hub().ServeWS(c.Writer, c.Request)
	})

	registerRoutes(r, serviceContainer)
	return r
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "Accept", "Cache-Control", "X-Requested-With")
	if cfg.CORSOrigin == "" || cfg.CORSOrigin == "*" {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}
	corsCfg.AllowOrigins = strings.Split(cfg.CORSOrigin, ",")
	for i, origin := range corsCfg.AllowOrigins {
		corsCfg.AllowOrigins[i] = strings.TrimSpace(origin)
	}
	return corsCfg
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查路由
	api.GET("/ping", controllers.HandleHealthFunc(container, "ping"))
	api.GET("/health", controllers.HandleHealthFunc(container, "ping"))
	healthGroup := api.Group("/health")
	healthGroup.GET("/status", controllers.HandleHealthFunc(container, "status"))
	healthGroup.GET("/cache-stats", controllers.HandleHealthFunc(container, "cacheStats"))

	// 认证路由 - 每秒2个请求，最多突发10个请求
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.IPRateLimiter(2, 10))
	authGroup.POST("/register", controllers.HandleAuthFunc(container, "register"))
	authGroup.POST("/login", controllers.HandleAuthFunc(container, "login"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	auth := api.Group("")
	auth.Use(middleware.Authentication())

	// 按用户限流 - 每秒30个请求，最多突发50个请求
	auth.Use(middleware.CustomRateLimiter(30, 50, func(c *gin.Context) string {
		if user := middleware.CurrentUser(c); user != nil {
			return user.ID
		}
		return c.ClientIP()
	}))

	auth.GET("/user", controllers.HandleAuthFunc(container, "me"))

	registerAdminRoutes(auth, container)
	registerCitizenRoutes(auth, container)
	registerUnitRoutes(auth, container)
	registerCallRoutes(auth, container)
	registerIncidentRoutes(auth, container)
	registerWarrantRoutes(auth, container)
	registerRecordRoutes(auth, container)

	// 调度面板
	dispatchGroup := auth.Group("/dispatch")
	dispatchGroup.Use(middleware.RequirePermissions(perm.Dispatch))
	dispatchGroup.GET("", controllers.HandleDispatchFunc(container, "getDispatchData"))
	dispatchGroup.POST("/dispatchers-state", controllers.HandleDispatchFunc(container, "setDispatchState"))
	dispatchGroup.POST("/heartbeat", controllers.HandleDispatchFunc(container, "heartbeat"))
}

// registerAdminRoutes 值、状态码和CAD设置; 读取对所有登录用户开放
func registerAdminRoutes(auth *gin.RouterGroup, container *container.ServiceContainer) {
	admin := auth.Group("/admin")
	manageValues := middleware.RequirePermissions(perm.ManageValues)
	manageSettings := middleware.RequirePermissions(perm.ManageCadSettings)

	valueGroup := admin.Group("/values")
	valueGroup.GET("/:type", middleware.Cache(middleware.CacheConfig{Expiration: 5 * time.Minute}), controllers.HandleAdminFunc(container, "getValues"))
	valueGroup.POST("/:type", manageValues, middleware.PurgeOnSuccess(valuesPath), controllers.HandleAdminFunc(container, "createValue"))
	valueGroup.PUT("/:type/:id", manageValues, middleware.PurgeOnSuccess(valuesPath), controllers.HandleAdminFunc(container, "updateValue"))
	valueGroup.DELETE("/:type/:id", manageValues, middleware.PurgeOnSuccess(valuesPath), controllers.HandleAdminFunc(container, "deleteValue"))

	statusGroup := admin.Group("/statuses")
	statusGroup.GET("", middleware.Cache(middleware.CacheConfig{Expiration: 5 * time.Minute}), controllers.HandleAdminFunc(container, "getStatuses"))
	statusGroup.POST("", manageValues, middleware.PurgeOnSuccess(statusesPath), controllers.HandleAdminFunc(container, "createStatus"))
	statusGroup.PUT("/:id", manageValues, middleware.PurgeOnSuccess(statusesPath), controllers.HandleAdminFunc(container, "updateStatus"))
	statusGroup.DELETE("/:id", manageValues, middleware.PurgeOnSuccess(statusesPath), controllers.HandleAdminFunc(container, "deleteStatus"))

	admin.GET("/settings", controllers.HandleAdminFunc(container, "getSettings"))
	admin.PUT("/settings", manageSettings, controllers.HandleAdminFunc(container, "updateSettings"))
	admin.PUT("/features/:feature", manageSettings, controllers.HandleAdminFunc(container, "setFeature"))
	admin.PUT("/users/:id/permissions", manageSettings, controllers.HandleAdminFunc(container, "setUserPermissions"))
}

// registerCitizenRoutes 公民、车辆和武器
func registerCitizenRoutes(auth *gin.RouterGroup, container *container.ServiceContainer) {
	flagEditors := middleware.RequirePermissions(perm.Leo, perm.Dispatch, perm.ManageRecords)

	citizenGroup := auth.Group("/citizens")
	citizenGroup.GET("", controllers.HandleCitizenFunc(container, "getCitizens"))
	citizenGroup.GET("/:id", controllers.HandleCitizenFunc(container, "getCitizen"))
	citizenGroup.POST("", controllers.HandleCitizenFunc(container, "createCitizen"))
	citizenGroup.PUT("/:id", controllers.HandleCitizenFunc(container, "updateCitizen"))
	citizenGroup.DELETE("/:id", controllers.HandleCitizenFunc(container, "deleteCitizen"))
	citizenGroup.PUT("/:id/flags", flagEditors, controllers.HandleCitizenFunc(container, "updateCitizenFlags"))
	citizenGroup.GET("/:id/records", middleware.RequirePermissions(perm.Leo, perm.Dispatch, perm.ManageRecords), controllers.HandleRecordFunc(container, "getCitizenRecords"))

	vehicleGroup := auth.Group("/vehicles")
	vehicleGroup.POST("", controllers.HandleCitizenFunc(container, "registerVehicle"))
	vehicleGroup.DELETE("/:id", controllers.HandleCitizenFunc(container, "deleteVehicle"))
	vehicleGroup.PUT("/:id/flags", flagEditors, controllers.HandleCitizenFunc(container, "updateVehicleFlags"))

	weaponGroup := auth.Group("/weapons")
	weaponGroup.POST("", controllers.HandleCitizenFunc(container, "registerWeapon"))
	weaponGroup.DELETE("/:id", controllers.HandleCitizenFunc(container, "deleteWeapon"))
}

// registerUnitRoutes 单位创建、状态和合并
func registerUnitRoutes(auth *gin.RouterGroup, container *container.ServiceContainer) {
	auth.POST("/leo", middleware.RequirePermissions(perm.Leo), controllers.HandleUnitFunc(container, "createOfficer"))
	auth.POST("/ems-fd", middleware.RequirePermissions(perm.EmsFd), controllers.HandleUnitFunc(container, "createDeputy"))

	unitGroup := auth.Group("/units")
	unitGroup.Use(middleware.RequirePermissions(perm.Leo, perm.EmsFd, perm.Dispatch))
	unitGroup.GET("/:id", controllers.HandleUnitFunc(container, "getUnit"))
	unitGroup.PUT("/:id/status", controllers.HandleUnitFunc(container, "setStatus"))
	unitGroup.POST("/combine", controllers.HandleUnitFunc(container, "combineUnits"))
	unitGroup.POST("/:id/uncombine", controllers.HandleUnitFunc(container, "uncombineUnit"))
}

// registerCallRoutes 911、拖车和出租车呼叫; 任何登录用户都可以报警
func registerCallRoutes(auth *gin.RouterGroup, container *container.ServiceContainer) {
	responders := middleware.RequirePermissions(perm.Leo, perm.EmsFd, perm.Dispatch)

	callGroup := auth.Group("/911-calls")
	callGroup.POST("", controllers.HandleCallFunc(container, "createCall"))
	callGroup.GET("", responders, controllers.HandleCallFunc(container, "getCalls"))
	callGroup.GET("/:id", responders, controllers.HandleCallFunc(container, "getCall"))
	callGroup.PUT("/:id", responders, controllers.HandleCallFunc(container, "updateCall"))
	callGroup.DELETE("/:id", responders, controllers.HandleCallFunc(container, "deleteCall"))
	callGroup.POST("/:id/assign", responders, controllers.HandleCallFunc(container, "assignUnit"))
	callGroup.POST("/:id/unassign", responders, controllers.HandleCallFunc(container, "unassignUnit"))
	callGroup.POST("/:id/end", responders, controllers.HandleCallFunc(container, "endCall"))

	registerTowRoutes(auth.Group("/tow"), container, services.CallKindTow, perm.Tow)
	registerTowRoutes(auth.Group("/taxi"), container, services.CallKindTaxi, perm.Taxi)
}

func registerTowRoutes(group *gin.RouterGroup, container *container.ServiceContainer, kind services.CallKind, driver perm.Permission) {
	drivers := middleware.RequirePermissions(driver)

	group.POST("", controllers.HandleTowFunc(container, kind, "createCall"))
	group.GET("", drivers, controllers.HandleTowFunc(container, kind, "getCalls"))
	group.PUT("/:id", drivers, controllers.HandleTowFunc(container, kind, "updateCall"))
	group.POST("/:id/assign", drivers, controllers.HandleTowFunc(container, kind, "assignCitizen"))
	group.POST("/:id/end", drivers, controllers.HandleTowFunc(container, kind, "endCall"))
}

// registerIncidentRoutes LEO事件
func registerIncidentRoutes(auth *gin.RouterGroup, container *container.ServiceContainer) {
	incidentGroup := auth.Group("/incidents")
	incidentGroup.Use(middleware.RequirePermissions(perm.Leo, perm.Dispatch, perm.ManageIncidents))
	incidentGroup.GET("", controllers.HandleIncidentFunc(container, "getIncidents"))
	incidentGroup.GET("/:id", controllers.HandleIncidentFunc(container, "getIncident"))
	incidentGroup.POST("", controllers.HandleIncidentFunc(container, "createIncident"))
	incidentGroup.PUT("/:id", controllers.HandleIncidentFunc(container, "updateIncident"))
	incidentGroup.DELETE("/:id", middleware.RequirePermissions(perm.ManageIncidents), controllers.HandleIncidentFunc(container, "deleteIncident"))
	incidentGroup.POST("/:id/assign", controllers.HandleIncidentFunc(container, "assignUnit"))
	incidentGroup.POST("/:id/unassign", controllers.HandleIncidentFunc(container, "unassignUnit"))
	incidentGroup.POST("/:id/end", controllers.HandleIncidentFunc(container, "endIncident"))
}

// registerWarrantRoutes 通缉令
func registerWarrantRoutes(auth *gin.RouterGroup, container *container.ServiceContainer) {
	manage := middleware.RequirePermissions(perm.ManageWarrants)

	warrantGroup := auth.Group("/warrants")
	warrantGroup.GET("", middleware.RequirePermissions(perm.Leo, perm.Dispatch, perm.ManageWarrants), controllers.HandleWarrantFunc(container, "getWarrants"))
	warrantGroup.GET("/:id", middleware.RequirePermissions(perm.Leo, perm.Dispatch, perm.ManageWarrants), controllers.HandleWarrantFunc(container, "getWarrant"))
	warrantGroup.POST("", manage, controllers.HandleWarrantFunc(container, "createWarrant"))
	warrantGroup.PUT("/:id", manage, controllers.HandleWarrantFunc(container, "updateWarrant"))
	warrantGroup.DELETE("/:id", manage, controllers.HandleWarrantFunc(container, "deleteWarrant"))
	warrantGroup.POST("/:id/review", middleware.RequirePermissions(perm.ReviewWarrants), controllers.HandleWarrantFunc(container, "reviewWarrant"))
}

// registerRecordRoutes 公民记录
func registerRecordRoutes(auth *gin.RouterGroup, container *container.ServiceContainer) {
	recordGroup := auth.Group("/records")
	recordGroup.Use(middleware.RequirePermissions(perm.Leo, perm.ManageRecords))
	recordGroup.POST("", controllers.HandleRecordFunc(container, "createRecord"))
	recordGroup.PUT("/:id", controllers.HandleRecordFunc(container, "updateRecord"))
	recordGroup.DELETE("/:id", controllers.HandleRecordFunc(container, "deleteRecord"))
}
