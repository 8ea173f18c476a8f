package app

import (
	"context"
	"fmt"

	"textlens/internal/config"
	"textlens/internal/store/requestlog"
	apihttp "textlens/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置 → 初始化依赖 → 启动 HTTP 服务。
type App struct {
	cfg    *config.Config
	server *apihttp.Server
	audit  *requestlog.Store
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return build(cfg)
}

// Run 启动 HTTP 服务，ctx 取消时优雅退出。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	err := group.Wait()
	if a.audit != nil {
		_ = a.audit.Close()
	}
	return err
}

// Server 暴露 HTTP server（测试用）。
func (a *App) Server() *apihttp.Server {
	if a == nil {
		return nil
	}
	return a.server
}
