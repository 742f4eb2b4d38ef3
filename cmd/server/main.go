// @title           Snaily CAD API
// @version         1.0
// @description     Computer aided dispatch backend: units, 911 calls, incidents, warrants and the dispatch board

// @license.name  AGPL-3.0
// @license.url   https://www.gnu.org/licenses/agpl-3.0.html

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer ` prefix
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/app/routes"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/database"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
	"github.com/SnailyCAD/snaily-cadv4-sub004/pkg/utils"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	// 初始化日志配置
	if err := Logger.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}

	// 加载.env文件, 环境变量也可能通过其他方式设置
	if err := godotenv.Load(); err != nil {
		Logger.Warning("无法加载.env文件: %v", err)
	} else {
		Logger.Info("成功加载.env文件")
	}

	cfg := config.GetConfig()
	Logger.SetLevel(cfg.LogLevel)

	// 创建数据库连接池
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		Logger.Error("无法创建数据库连接池: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(pool.GetDB(), cfg.DBMigrationMode); err != nil {
		Logger.Error("数据库迁移失败: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seed(ctx, pool, cfg); err != nil {
		Logger.Error("初始化数据失败: %v", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
	}

	serviceContainer := container.NewServiceContainer(pool.GetDB(), cfg, redisClient)
	serviceContainer.Start(ctx)
	defer serviceContainer.Close()

	r := routes.SetupRouter(serviceContainer, cfg)
	printSystemInfo(pool)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		Logger.Info("服务器启动在: http://0.0.0.0:%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Error("启动服务器失败: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	Logger.Info("正在关闭服务器")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		Logger.Error("关闭服务器失败: %v", err)
	}
}

// defaultStatuses are created on an empty database so units can go on and off duty
var defaultStatuses = []models.StatusValue{
	{Value: "10-8", ShouldDo: models.ShouldDoSetOnDuty, Type: models.StatusValueTypeStatusCode, Color: "#22c55e", Position: 1},
	{Value: "10-7", ShouldDo: models.ShouldDoSetOffDuty, Type: models.StatusValueTypeStatusCode, Color: "#ef4444", Position: 2},
	{Value: "10-6", ShouldDo: models.ShouldDoSetStatus, Type: models.StatusValueTypeStatusCode, Color: "#eab308", Position: 3},
	{Value: "10-99", ShouldDo: models.ShouldDoPanicButton, Type: models.StatusValueTypeStatusCode, Color: "#b91c1c", Position: 4},
}

// seed 确保所有者账户和默认状态码存在
func seed(ctx context.Context, pool *database.ConnectionPool, cfg *config.Config) error {
	return pool.WithTransaction(ctx, func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&models.User{}).Count(&users).Error; err != nil {
			return err
		}
		if users == 0 && cfg.DefaultOwnerPassword != "" {
			hashed, err := utils.HashPassword(cfg.DefaultOwnerPassword)
			if err != nil {
				return fmt.Errorf("生成密码哈希失败: %w", err)
			}
			owner := models.User{Username: "admin", Password: hashed, Rank: models.RankOwner}
			if err := tx.Create(&owner).Error; err != nil {
				return fmt.Errorf("创建默认所有者失败: %w", err)
			}
			Logger.Info("已创建默认所有者账户 admin")
		}

		var statuses int64
		if err := tx.Model(&models.StatusValue{}).Count(&statuses).Error; err != nil {
			return err
		}
		if statuses == 0 {
			rows := make([]models.StatusValue, len(defaultStatuses))
			copy(rows, defaultStatuses)
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("创建默认状态码失败: %w", err)
			}
			Logger.Info("已创建 %d 个默认状态码", len(rows))
		}
		return nil
	})
}

// printSystemInfo 打印系统信息
func printSystemInfo(pool *database.ConnectionPool) {
	if stats, err := pool.Stats(); err == nil {
		Logger.Info("数据库连接池状态: %+v", stats)
	}
	Logger.Info("系统CPU核心数: %d, 当前Go协程数: %d", runtime.NumCPU(), runtime.NumGoroutine())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	Logger.Info("系统内存使用: Alloc=%v MiB, Sys=%v MiB", m.Alloc/1024/1024, m.Sys/1024/1024)
}
