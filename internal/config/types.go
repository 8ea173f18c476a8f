package config

import (
	"strings"
	"time"
)

// Config 是 textlens 的主配置载体。
type Config struct {
	App    AppConfig    `toml:"app"`
	Server ServerConfig `toml:"server"`
	Ollama OllamaConfig `toml:"ollama"`
	Upload UploadConfig `toml:"upload"`
	Prompt PromptConfig `toml:"prompt"`
	Store  StoreConfig  `toml:"store"`
}

type AppConfig struct {
	Env           string `toml:"env"`
	LogLevel      string `toml:"log_level"`
	LogPath       string `toml:"log_path"`
	ReplyDump     bool   `toml:"reply_dump"`
	ReplyDumpPath string `toml:"reply_dump_path"`
}

// ServerConfig 描述对外 HTTP 服务。
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// OllamaConfig 描述本地推理后端的访问方式。
type OllamaConfig struct {
	Host             string `toml:"host"`
	Model            string `toml:"model"`
	RequestTimeoutMS int    `toml:"request_timeout_ms"`
	ModelsPath       string `toml:"models_path"`
}

// RequestTimeout 返回单次后端调用的超时窗口。
func (o OllamaConfig) RequestTimeout() time.Duration {
	return time.Duration(o.RequestTimeoutMS) * time.Millisecond
}

// UploadConfig 限制上传内容的大小与类型。
type UploadConfig struct {
	MaxUploadMB int      `toml:"max_upload_mb"`
	AllowedMIME []string `toml:"allowed_mime"`
}

// MaxUploadBytes 返回字节数上限。
func (u UploadConfig) MaxUploadBytes() int64 {
	return int64(u.MaxUploadMB) * 1024 * 1024
}

// NormalizedMIME 返回去除空白的允许类型列表。
func (u UploadConfig) NormalizedMIME() []string {
	out := make([]string, 0, len(u.AllowedMIME))
	for _, m := range u.AllowedMIME {
		m = strings.TrimSpace(strings.ToLower(m))
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

type PromptConfig struct {
	Path string `toml:"path"`
}

// StoreConfig 描述请求审计日志的落盘位置，留空表示禁用。
type StoreConfig struct {
	RequestLogPath string `toml:"request_log_path"`
}
