package notices

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches notice routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/notices", h.create)
	rg.GET("/notices", h.list)
	rg.GET("/notices/:id", h.get)
}

type createRequest struct {
	Context     string `json:"context"`
	ManualLabel string `json:"manualLabel"`
	ExtraInfo   string `json:"extraInfo"`
}

type noticeResponse struct {
	ID          string  `json:"id"`
	Context     string  `json:"context"`
	ManualLabel *string `json:"manualLabel,omitempty"`
	ExtraInfo   string  `json:"extraInfo,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

// create accepts either a JSON body or a multipart upload carrying a
// PDF/plain-text file plus optional form fields.
func (h *Handler) create(c *gin.Context) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.createFromUpload(c)
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	n, err := h.Svc.Create(c.Request.Context(), req.Context, req.ManualLabel, req.ExtraInfo)
	if err != nil {
		writeCreateError(c, err)
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(n))
}

func (h *Handler) createFromUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	n, err := h.Svc.CreateFromFile(
		c.Request.Context(),
		data,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Filename,
		c.PostForm("manualLabel"),
		c.PostForm("extraInfo"),
	)
	if err != nil {
		writeCreateError(c, err)
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(n))
}

func writeCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create notice", nil)
	}
}

func (h *Handler) get(c *gin.Context) {
	n, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "notice not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch notice", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(n))
}

func (h *Handler) list(c *gin.Context) {
	limit := 50
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 500 {
		limit = 500
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	ns, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list notices", nil)
		return
	}

	out := make([]noticeResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, toResponse(n))
	}
	respond.JSON(c, http.StatusOK, gin.H{"notices": out})
}

func toResponse(n Notice) noticeResponse {
	return noticeResponse{
		ID:          n.ID,
		Context:     n.Context,
		ManualLabel: n.ManualLabel,
		ExtraInfo:   n.ExtraInfo,
		CreatedAt:   n.CreatedAt.Format(time.RFC3339),
	}
}
