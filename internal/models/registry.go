package models

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"textlens/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// 内置默认值，models.yaml 缺失时生效。
var (
	defaultSupported = []string{"moondream:1.8b", "llava:latest", "llama3.2-vision:latest"}

	// 模型名包含任一关键字即视为支持图像输入。
	defaultVisionKeywords = []string{"llava", "moondream", "vision", "bakllava", "qwen2-vl", "minicpm-v"}
)

// FileConfig 映射 models.yaml。
type FileConfig struct {
	Models         []string `mapstructure:"models"`
	VisionKeywords []string `mapstructure:"vision_keywords"`
}

// Snapshot 对外暴露的只读快照。
type Snapshot struct {
	LoadedAt       time.Time
	Supported      []string
	VisionKeywords []string
}

// Registry 管理运维侧认可的多模态模型清单，并监听文件热更新。
type Registry struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewRegistry 读取 models.yaml 并开始监听 FS 事件。path 为空时使用内置清单，不监听。
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: strings.TrimSpace(path)}
	if r.path == "" {
		r.setSnapshot(defaultSupported, defaultVisionKeywords)
		return r, nil
	}
	v := viper.New()
	v.SetConfigFile(r.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read models config failed: %w", err)
	}
	r.v = v
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("models reload failed (%s): %v", evt.Name, err)
			return
		}
		logger.Infof("models config reloaded from %s", r.path)
	})
	v.WatchConfig()
	return r, nil
}

func (r *Registry) reload() error {
	var file FileConfig
	if err := r.v.Unmarshal(&file); err != nil {
		return fmt.Errorf("parse models config failed: %w", err)
	}
	supported := normalize(file.Models)
	if len(supported) == 0 {
		supported = defaultSupported
	}
	keywords := normalize(file.VisionKeywords)
	if len(keywords) == 0 {
		keywords = defaultVisionKeywords
	}
	r.setSnapshot(supported, keywords)
	return nil
}

func (r *Registry) setSnapshot(supported, keywords []string) {
	r.mu.Lock()
	r.snapshot = Snapshot{
		LoadedAt:       time.Now(),
		Supported:      append([]string(nil), supported...),
		VisionKeywords: append([]string(nil), keywords...),
	}
	r.mu.Unlock()
}

// Snapshot 返回当前清单快照（拷贝）。
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.snapshot
	s.Supported = append([]string(nil), s.Supported...)
	s.VisionKeywords = append([]string(nil), s.VisionKeywords...)
	return s
}

// IsSupported 判断模型是否在运维清单内。
func (r *Registry) IsSupported(name string) bool {
	name = strings.TrimSpace(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.snapshot.Supported {
		if m == name {
			return true
		}
	}
	return false
}

// FilterVision 从已安装模型中筛出可处理图像的条目。
func (r *Registry) FilterVision(installed []string) []string {
	r.mu.RLock()
	keywords := r.snapshot.VisionKeywords
	r.mu.RUnlock()
	out := make([]string, 0, len(installed))
	for _, name := range installed {
		lower := strings.ToLower(name)
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
