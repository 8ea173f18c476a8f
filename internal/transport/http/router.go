package apihttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"textlens/internal/logger"
	"textlens/internal/models"
	"textlens/internal/ollama"
	"textlens/internal/pkg/apperr"
	"textlens/internal/store/requestlog"
	"textlens/internal/upload"

	"github.com/gin-gonic/gin"
)

const serviceVersion = "1.0.0"

// errorBody 是核心失败的统一出口形态，状态码与 code 字段一致。
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Router 承载全部 API 处理器。
type Router struct {
	guard    *upload.Validator
	client   *ollama.Client
	registry *models.Registry
	audit    *requestlog.Store // 可为 nil（禁用审计）

	maxUploadMB int
}

// NewRouter 构造 API router。audit 传 nil 表示不落审计日志。
func NewRouter(guard *upload.Validator, client *ollama.Client, registry *models.Registry,
	audit *requestlog.Store, maxUploadMB int) *Router {
	return &Router{
		guard:       guard,
		client:      client,
		registry:    registry,
		audit:       audit,
		maxUploadMB: maxUploadMB,
	}
}

// Register 挂载全部路由。
func (r *Router) Register(engine *gin.Engine) {
	engine.GET("/", r.handleRoot)
	engine.GET("/healthz", r.handleHealth)
	api := engine.Group("/api")
	api.POST("/extract-text", r.handleExtract)
	api.GET("/models", r.handleModels)
	api.POST("/set-model", r.handleSetModel)
	api.GET("/ollama-status", r.handleOllamaStatus)
	api.GET("/requests", r.handleRequests)
}

func (r *Router) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":          "textlens OCR API",
		"version":          serviceVersion,
		"model":            r.client.ActiveModel(),
		"max_file_size_mb": r.maxUploadMB,
	})
}

func (r *Router) handleHealth(c *gin.Context) {
	connected := r.client.Ping(c.Request.Context())
	status := "healthy"
	if !connected {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"ollama_connected": connected,
		"ollama_host":      r.client.Host(),
		"ollama_model":     r.client.ActiveModel(),
	})
}

// handleExtract 是核心链路：multipart 读取 → 准入校验 → 推理编排。
func (r *Router) handleExtract(c *gin.Context) {
	start := time.Now()
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		// 缺少文件字段属于调用方错误，不进入核心链路
		c.JSON(http.StatusUnprocessableEntity, errorBody{
			Error:   "ValidationError",
			Message: "multipart field 'file' is required",
			Code:    http.StatusUnprocessableEntity,
		})
		return
	}
	defer file.Close()

	filename := header.Filename
	rec := requestlog.Record{
		TraceID:   traceFrom(c),
		Filename:  filename,
		SizeBytes: header.Size,
	}

	// multipart 解析已经缓冲了整个 part，header.Size 就是真实大小；
	// 超限在读 body 之前判定，报错带真实值而不是截断后的值
	if err := r.guard.CheckSize(header.Size, filename); err != nil {
		r.renderError(c, err)
		r.writeAudit(rec, r.client.ActiveModel(), "", err, start)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		r.renderError(c, err)
		return
	}
	logger.Infof("processing text extraction for file: %s (%d bytes)", filename, len(data))

	img, err := r.guard.Admit(data, filename)
	if err != nil {
		r.renderError(c, err)
		r.writeAudit(rec, r.client.ActiveModel(), "", err, start)
		return
	}
	rec.MIME = img.MIME

	result, err := r.client.Extract(c.Request.Context(), img.Base64)
	if err != nil {
		r.renderError(c, err)
		r.writeAudit(rec, r.client.ActiveModel(), img.MIME, err, start)
		return
	}

	logger.Infof("successfully extracted text from %s using %s", filename, result.Model)
	r.writeAudit(rec, result.Model, img.MIME, nil, start)
	c.JSON(http.StatusOK, result)
}

// renderError 把核心错误翻译成统一出口形态；未分类错误给通用 500，不泄露细节。
func (r *Router) renderError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		// 调用方已断开，不再写响应
		c.Abort()
		return
	}
	if e, ok := apperr.From(err); ok {
		if e.Kind != apperr.KindInvalidInput {
			logger.Errorf("extraction failed (%s): %s", e.Kind, e.Message)
		} else {
			logger.Warnf("upload rejected: %s", e.Message)
		}
		c.JSON(e.StatusCode, errorBody{Error: string(e.Kind), Message: e.Message, Code: e.StatusCode})
		return
	}
	logger.Errorf("unexpected extraction error: %v", err)
	c.JSON(http.StatusInternalServerError, errorBody{
		Error:   "InternalServerError",
		Message: "An unexpected error occurred",
		Code:    http.StatusInternalServerError,
	})
}

// writeAudit 落一条元数据记录；审计失败只打日志，不影响响应。
func (r *Router) writeAudit(rec requestlog.Record, model, mime string, cause error, start time.Time) {
	if r.audit == nil {
		return
	}
	rec.Model = model
	if mime != "" {
		rec.MIME = mime
	}
	rec.DurationMS = time.Since(start).Milliseconds()
	rec.Outcome = "ok"
	if cause != nil {
		if e, ok := apperr.From(cause); ok {
			rec.Outcome = string(e.Kind)
			rec.Message = e.Message
		} else {
			rec.Outcome = "InternalServerError"
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.audit.Insert(ctx, rec); err != nil {
		logger.Warnf("request audit write failed: %v", err)
	}
}

func (r *Router) handleModels(c *gin.Context) {
	tags, err := r.client.ListTags(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cannot connect to Ollama"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"available_models": r.registry.FilterVision(tags),
		"current_model":    r.client.ActiveModel(),
		"all_models":       tags,
	})
}

type setModelRequest struct {
	Model string `json:"model"`
}

// handleSetModel 校验后端确有该模型后做原子切换；进行中的请求不受影响。
func (r *Router) handleSetModel(c *gin.Context) {
	var req setModelRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Model) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Model name required"})
		return
	}
	name := strings.TrimSpace(req.Model)

	tags, err := r.client.ListTags(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cannot connect to Ollama"})
		return
	}
	installed := false
	for _, t := range tags {
		if t == name {
			installed = true
			break
		}
	}
	if !installed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Model '" + name + "' not found in Ollama"})
		return
	}
	if !r.registry.IsSupported(name) {
		logger.Warnf("switching to model %s which is not in the supported list", name)
	}
	r.client.SetModel(name)
	logger.Infof("switched to model: %s", name)
	c.JSON(http.StatusOK, gin.H{
		"message":       "Successfully switched to model: " + name,
		"current_model": name,
	})
}

func (r *Router) handleOllamaStatus(c *gin.Context) {
	tags, err := r.client.ListTags(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"status": "disconnected",
			"host":   r.client.Host(),
			"error":  "Cannot connect to Ollama",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "connected",
		"host":          r.client.Host(),
		"current_model": r.client.ActiveModel(),
		"total_models":  len(tags),
	})
}

// handleRequests 返回最近的审计记录。
func (r *Router) handleRequests(c *gin.Context) {
	if r.audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request log disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	outcome := strings.TrimSpace(c.Query("outcome"))
	records, err := r.audit.Recent(c.Request.Context(), limit, outcome)
	if err != nil {
		logger.Errorf("request log query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request log query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": records, "count": len(records)})
}
