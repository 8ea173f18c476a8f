package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Server.validate(); err != nil {
		return err
	}
	if err := c.Ollama.validate(); err != nil {
		return err
	}
	if err := c.Upload.validate(); err != nil {
		return err
	}
	return nil
}

func (s *ServerConfig) validate() error {
	if strings.TrimSpace(s.Addr) == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}

func (o *OllamaConfig) validate() error {
	host := strings.TrimSpace(o.Host)
	if host == "" {
		return fmt.Errorf("ollama.host must not be empty")
	}
	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ollama.host must be a full URL, got %q", o.Host)
	}
	if strings.TrimSpace(o.Model) == "" {
		return fmt.Errorf("ollama.model must not be empty")
	}
	if o.RequestTimeoutMS <= 0 {
		return fmt.Errorf("ollama.request_timeout_ms must be > 0")
	}
	return nil
}

func (u *UploadConfig) validate() error {
	if u.MaxUploadMB <= 0 {
		return fmt.Errorf("upload.max_upload_mb must be > 0")
	}
	mimes := u.NormalizedMIME()
	if len(mimes) == 0 {
		return fmt.Errorf("upload.allowed_mime requires at least one type")
	}
	for _, m := range mimes {
		if !strings.HasPrefix(m, "image/") {
			return fmt.Errorf("upload.allowed_mime contains non-image type: %s", m)
		}
	}
	return nil
}
