package config

// 默认值常量
const (
	defaultAppEnv        = "dev"
	defaultAppLogLevel   = "info"
	defaultServerAddr    = ":8000"
	defaultOllamaHost    = "http://localhost:11434"
	defaultOllamaModel   = "llava"
	defaultOllamaTimeout = 60000
	defaultMaxUploadMB   = 10
)

var (
	defaultAllowedMIME = []string{"image/png", "image/jpeg", "image/webp"}
	defaultOrigins     = []string{"http://localhost:8080", "http://localhost:3000"}
)
