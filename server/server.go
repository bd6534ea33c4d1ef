// Package server exposes a unifix client over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"

	"github.com/quailyquaily/unifix"
	"github.com/quailyquaily/unifix/repair"
)

// Repairer is the part of *unifix.Client the handlers use.
type Repairer interface {
	RepairWith(ctx context.Context, format repair.Format, text string, useFallback bool) (repair.Result, error)
	Validate(format repair.Format, text string) (repair.Validation, error)
	Prettify(format repair.Format, text string, indent int) (string, error)
	GetConfig() unifix.ClientConfigView
}

type RepairRequest struct {
	Format      string `json:"format,omitempty"`
	Text        string `json:"text"`
	UseFallback *bool  `json:"use_fallback,omitempty"`
}

type PrettifyRequest struct {
	Format string `json:"format,omitempty"`
	Text   string `json:"text"`
	Indent int    `json:"indent,omitempty"`
}

type PrettifyResponse struct {
	Text string `json:"text"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Options struct {
	// Logger enables gin request logging.
	Logger bool
	// MaxBodyBytes caps request bodies. Default 4 MiB.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 4 << 20

type handler struct {
	client  Repairer
	schema  *jsonschema.Schema
	maxBody int64
}

// New returns a gin engine serving the repair endpoints.
func New(client Repairer, opts Options) *gin.Engine {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	h := &handler{
		client:  client,
		schema:  resultSchema(),
		maxBody: opts.MaxBodyBytes,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Logger {
		r.Use(gin.Logger())
	}
	r.Use(h.limitBody)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	v1 := r.Group("/v1")
	v1.GET("/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, h.client.GetConfig())
	})
	v1.GET("/schema", func(c *gin.Context) {
		c.JSON(http.StatusOK, h.schema)
	})
	v1.POST("/repair", h.repair)
	v1.POST("/validate", h.validate)
	v1.POST("/prettify", h.prettify)
	return r
}

func resultSchema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}
	return reflector.Reflect(&repair.Result{})
}

func (h *handler) limitBody(c *gin.Context) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}
	c.Next()
}

func (h *handler) bind(c *gin.Context, req *RepairRequest) (repair.Format, bool) {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return "", false
	}
	format, err := unifix.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return "", false
	}
	return format, true
}

func (h *handler) repair(c *gin.Context) {
	var req RepairRequest
	format, ok := h.bind(c, &req)
	if !ok {
		return
	}
	useFallback := h.client.GetConfig().UseFallback
	if req.UseFallback != nil {
		useFallback = *req.UseFallback
	}
	res, err := h.client.RepairWith(c.Request.Context(), format, req.Text, useFallback)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) validate(c *gin.Context) {
	var req RepairRequest
	format, ok := h.bind(c, &req)
	if !ok {
		return
	}
	v, err := h.client.Validate(format, req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handler) prettify(c *gin.Context) {
	var req PrettifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	format, err := unifix.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.client.Prettify(format, req.Text, req.Indent)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, PrettifyResponse{Text: out})
}
