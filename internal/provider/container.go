package provider

import (
	"fmt"

	"github.com/polbel-next/internal/authz"
	"github.com/polbel-next/internal/cache"
	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/logger"
	"github.com/polbel-next/internal/queue"
	"github.com/polbel-next/internal/repository"
	"github.com/polbel-next/internal/schema"
	"github.com/polbel-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client

	// Repositories
	EntityRepo    repository.EntityRepository
	AdminRepo     repository.AdminRepository
	DashboardRepo repository.DashboardRepository

	// Services
	AuthzService     *authz.Service
	AuthService      *service.AuthService
	EntityService    *service.EntityService
	OrderService     *service.OrderService
	EmailService     *service.EmailService
	CaptchaService   *service.CaptchaService
	DashboardService *service.DashboardService
}

// NewContainer 初始化容器
// db 由调用方打开并负责关闭。
func NewContainer(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("config and database are required")
	}

	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queue.NewClient(&cfg.Queue),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

// Close 释放缓存与队列连接
func (c *Container) Close() {
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

func (c *Container) initRepositories() {
	c.EntityRepo = repository.NewEntityRepository(c.DB)
	c.AdminRepo = repository.NewAdminRepository(c.DB)
	c.DashboardRepo = repository.NewDashboardRepository(c.DB)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapFromRegistry(); err != nil {
		logger.Errorw("provider_bootstrap_roles_failed", "error", err)
		return err
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)

	c.EntityService = service.NewEntityService(c.EntityRepo)
	c.OrderService = service.NewOrderService(c.EntityService, c.EntityRepo, c.DashboardRepo, c.QueueClient)
	service.NewCommentPolicy(c.EntityService, c.EntityRepo)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.EntityService)
	c.EntityService.Use(schema.EntityAdminUser, service.EntityHooks{AfterDelete: c.AuthService.RevokeAdmin})
	return nil
}
