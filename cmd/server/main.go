package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/atakdmr/StudentAttendance/config"
	"github.com/atakdmr/StudentAttendance/internal/api/handler"
	"github.com/atakdmr/StudentAttendance/internal/api/middleware"
	"github.com/atakdmr/StudentAttendance/internal/api/router"
	"github.com/atakdmr/StudentAttendance/internal/repository"
	"github.com/atakdmr/StudentAttendance/internal/service"
	"github.com/atakdmr/StudentAttendance/pkg/database"
	"github.com/atakdmr/StudentAttendance/pkg/jwt"
	applogger "github.com/atakdmr/StudentAttendance/pkg/logger"
	"github.com/atakdmr/StudentAttendance/pkg/redis"
	"github.com/atakdmr/StudentAttendance/pkg/sms"
)

func main() {
	// 0. 加载 .env（不存在时忽略）
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("YOKLAMA_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单与登录限流将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 短信网关（未启用时缺勤通知接口返回不可用）
	var smsSender sms.Sender
	if cfg.SMS.Enabled {
		smsSender = sms.NewNetGSMClient(&cfg.SMS, logger)
	}

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, jwtMgr, rdb, smsSender, logger)
	h := handler.NewHandler(svc, &cfg.Auth.Cookie)

	// 7.1 首次启动创建管理员
	if cfg.Bootstrap.AdminPassword != "" {
		created, err := svc.User.EnsureAdmin(context.Background(),
			cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminFullName)
		if err != nil {
			logger.Fatal("初始化管理员失败", zap.Error(err))
		}
		if created {
			logger.Info("已创建初始管理员", zap.String("username", cfg.Bootstrap.AdminUsername))
		}
	}

	// 8. 初始化路由
	if err := middleware.RegisterValidators(); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}
	engine := router.Setup(cfg, h, jwtMgr, rdb, db, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
