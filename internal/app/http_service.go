package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/logger"
)

const maxHeaderBytes = 1 << 20

// HTTPService 实体网关 HTTP 服务
// 连接超出数据库池容量时请求在池上排队，这里只限制单个连接的读写时长。
type HTTPService struct {
	server *http.Server
}

// NewHTTPService 按 server 配置创建 HTTP 服务
func NewHTTPService(cfg config.ServerConfig, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: seconds(cfg.ReadTimeoutSeconds, 15),
			ReadTimeout:       seconds(cfg.ReadTimeoutSeconds, 15),
			WriteTimeout:      seconds(cfg.WriteTimeoutSeconds, 30),
			IdleTimeout:       seconds(cfg.IdleTimeoutSeconds, 60),
			MaxHeaderBytes:    maxHeaderBytes,
			ErrorLog:          logger.StdLogger(),
		},
	}
}

// Name 服务名称
func (s *HTTPService) Name() string {
	return "http"
}

// Addr 监听地址
func (s *HTTPService) Addr() string {
	if s == nil || s.server == nil {
		return ""
	}
	return s.server.Addr
}

// Start 监听并阻塞，Stop 触发的关闭不视为错误
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	logger.Infow("http_listening", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭，等待进行中的请求完成
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
