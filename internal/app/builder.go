package app

import (
	"fmt"
	"strings"

	"textlens/internal/config"
	"textlens/internal/logger"
	"textlens/internal/models"
	"textlens/internal/ollama"
	"textlens/internal/prompt"
	"textlens/internal/store/requestlog"
	apihttp "textlens/internal/transport/http"
	"textlens/internal/upload"
)

// build 手工装配全部组件；依赖关系简单，不引入代码生成。
func build(cfg *config.Config) (*App, error) {
	prompts, err := prompt.Load(cfg.Prompt.Path)
	if err != nil {
		return nil, fmt.Errorf("load prompts failed: %w", err)
	}

	registry, err := models.NewRegistry(cfg.Ollama.ModelsPath)
	if err != nil {
		return nil, fmt.Errorf("init models registry failed: %w", err)
	}

	guard := upload.NewValidator(cfg.Upload)
	client := ollama.NewClient(cfg.Ollama, prompts)

	var audit *requestlog.Store
	if strings.TrimSpace(cfg.Store.RequestLogPath) != "" {
		audit, err = requestlog.NewStore(cfg.Store.RequestLogPath)
		if err != nil {
			return nil, fmt.Errorf("init request log failed: %w", err)
		}
		logger.Infof("request audit log enabled at %s", cfg.Store.RequestLogPath)
	}

	router := apihttp.NewRouter(guard, client, registry, audit, cfg.Upload.MaxUploadMB)
	server, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Router:         router,
	})
	if err != nil {
		if audit != nil {
			_ = audit.Close()
		}
		return nil, err
	}

	logger.Infof("ollama backend: %s, active model: %s, timeout: %s",
		client.Host(), client.ActiveModel(), cfg.Ollama.RequestTimeout())
	return &App{cfg: cfg, server: server, audit: audit}, nil
}
