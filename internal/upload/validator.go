// Package upload 实现上传内容的准入校验：在任何字节进入推理链路之前，
// 依次检查文件名、大小、真实类型（魔数嗅探）与像素可解码性。
package upload

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"textlens/internal/config"
	"textlens/internal/pkg/apperr"

	"github.com/gabriel-vasile/mimetype"
)

// ValidatedImage 是准入通过后交给编排器的唯一产物。
// Base64 解码后与原始字节逐位一致，不做任何重编码。
type ValidatedImage struct {
	Base64 string
	MIME   string
}

// Validator 持有大小与类型限制；无任何副作用，不落盘。
type Validator struct {
	maxUploadMB int
	maxBytes    int64
	allowed     []string
}

// NewValidator 根据上传限制构造校验器。
func NewValidator(cfg config.UploadConfig) *Validator {
	return &Validator{
		maxUploadMB: cfg.MaxUploadMB,
		maxBytes:    cfg.MaxUploadBytes(),
		allowed:     cfg.NormalizedMIME(),
	}
}

// CheckSize 按声明的大小做上限判断。HTTP 边界在读取 body 之前先用
// multipart 头里的真实大小调用它，超限报错里带的必须是真实值。
func (v *Validator) CheckSize(size int64, filename string) error {
	if size == 0 {
		return apperr.InvalidInput("File '%s' is empty", filename)
	}
	if size > v.maxBytes {
		actualMB := float64(size) / (1024 * 1024)
		return apperr.InvalidInput("File '%s' is too large (%.2fMB). Maximum size: %dMB",
			filename, actualMB, v.maxUploadMB)
	}
	return nil
}

// Admit 校验一份不可信字节缓冲。任何一步失败立即短路，
// 全部通过后返回原始字节的 base64 与嗅探出的 MIME 类型。
func (v *Validator) Admit(data []byte, filename string) (*ValidatedImage, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, apperr.InvalidInput("No file provided")
	}
	if err := v.CheckSize(int64(len(data)), filename); err != nil {
		return nil, err
	}
	mime, err := v.sniffType(data, filename)
	if err != nil {
		return nil, err
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return nil, apperr.InvalidInput("File '%s' is not a valid image or is corrupted", filename)
	}
	return &ValidatedImage{
		Base64: base64.StdEncoding.EncodeToString(data),
		MIME:   mime,
	}, nil
}

// sniffType 只相信二进制签名，不看扩展名和请求头。
func (v *Validator) sniffType(data []byte, filename string) (string, error) {
	mt := mimetype.Detect(data)
	for _, allowed := range v.allowed {
		if mt.Is(allowed) {
			return allowed, nil
		}
	}
	// text/plain 之类的类型会带 charset 参数，报错时去掉
	sniffed := mt.String()
	if idx := strings.Index(sniffed, ";"); idx != -1 {
		sniffed = strings.TrimSpace(sniffed[:idx])
	}
	return "", apperr.InvalidInput("File type '%s' not allowed. Supported types: %s",
		sniffed, strings.Join(v.allowed, ", "))
}
