package app

import (
	"errors"
	"fmt"

	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/models"
	"github.com/polbel-next/internal/provider"
	"github.com/polbel-next/internal/router"
	"github.com/polbel-next/internal/worker"

	"gorm.io/gorm"
)

// OpenDatabase 按配置打开数据库并完成迁移
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := models.OpenDB(cfg.Database.Driver, cfg.Database.ResolveDSN(), models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		_ = models.CloseDB(db)
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// BuildRunner 构建服务运行器
// 数据库与容器在运行器停止后关闭。
func BuildRunner(cfg *config.Config, db *gorm.DB, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container, err := provider.NewContainer(cfg, db)
	if err != nil {
		return nil, err
	}

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))
	}

	// 初始化 Worker 服务
	if mode == ModeAll || mode == ModeWorker {
		if !cfg.Queue.Enabled {
			if mode == ModeWorker {
				container.Close()
				return nil, errors.New("worker mode requires queue.enabled")
			}
		} else {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				container.Close()
				return nil, err
			}
			services = append(services, workerService)
		}
	}

	if len(services) == 0 {
		container.Close()
		return nil, fmt.Errorf("no services initialized for mode %q", mode)
	}

	runner := NewRunner(services...)
	runner.OnStop(func() error {
		container.Close()
		return nil
	})
	runner.OnStop(func() error { return models.CloseDB(db) })
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	db, err := OpenDatabase(opts.Config)
	if err != nil {
		return err
	}
	admin := opts.Config.DefaultAdmin
	if err := models.EnsureDefaultAdmin(db, admin.Name, admin.Email, admin.Password); err != nil {
		opts.Logger.Warnw("default_admin_init_failed", "error", err)
	}

	runner, err := BuildRunner(opts.Config, db, opts.Mode)
	if err != nil {
		_ = models.CloseDB(db)
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode, "db_driver", opts.Config.Database.Driver)
	return RunWithOptions(runner, opts)
}
