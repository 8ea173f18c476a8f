package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取 YAML 配置并套用默认值。path 为空或文件不存在时使用纯默认配置，
// 环境变量（TEXTLENS_ 前缀，点号换下划线）可覆盖任意键。
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	applyViperDefaults(v)
	v.SetEnvPrefix("TEXTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyViperDefaults 注册所有已知键；这同时让 AutomaticEnv 能覆盖它们。
func applyViperDefaults(v *viper.Viper) {
	v.SetDefault("app.env", defaultAppEnv)
	v.SetDefault("app.log_level", defaultAppLogLevel)
	v.SetDefault("app.log_path", "")
	v.SetDefault("app.reply_dump", false)
	v.SetDefault("app.reply_dump_path", "")
	v.SetDefault("server.addr", defaultServerAddr)
	v.SetDefault("server.allowed_origins", defaultOrigins)
	v.SetDefault("ollama.host", defaultOllamaHost)
	v.SetDefault("ollama.model", defaultOllamaModel)
	v.SetDefault("ollama.request_timeout_ms", defaultOllamaTimeout)
	v.SetDefault("ollama.models_path", "")
	v.SetDefault("upload.max_upload_mb", defaultMaxUploadMB)
	v.SetDefault("upload.allowed_mime", defaultAllowedMIME)
	v.SetDefault("prompt.path", "")
	v.SetDefault("store.request_log_path", "")
}
