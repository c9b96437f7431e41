package app

import (
	"os"
	"time"

	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/logger"

	"go.uber.org/zap"
)

// 启动模式
const (
	ModeAll    = "all"    // API 与 worker 同进程
	ModeAPI    = "api"    // 仅实体网关
	ModeWorker = "worker" // 仅订单通知 worker
)

const defaultShutdownTimeout = 10 * time.Second

// Options 应用启动选项
// ShutdownTimeout 为空时取 server.shutdown_timeout_seconds。
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// normalizeOptions 补齐默认参数
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 && opts.Config != nil && opts.Config.Server.ShutdownTimeoutSeconds > 0 {
		opts.ShutdownTimeout = time.Duration(opts.Config.Server.ShutdownTimeoutSeconds) * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	return opts
}
