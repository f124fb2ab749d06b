package sessions

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.start)
	rg.GET("/sessions", h.list)
	rg.GET("/sessions/:id", h.get)
	rg.GET("/sessions/:id/progress", h.progress)
	rg.GET("/sessions/:id/results", h.results)
	rg.POST("/sessions/:id/cancel", h.cancel)
}

type startRequest struct {
	PromptID  string        `json:"promptId"`
	NoticeIDs []string      `json:"noticeIds"`
	Config    configRequest `json:"config"`
}

type configRequest struct {
	Provider        string  `json:"provider"`
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature"`
	MaxTokens       int     `json:"maxTokens"`
	TimeoutSeconds  int     `json:"timeoutSeconds"`
	Parallelism     int     `json:"parallelism"`
	BatchDelayMs    int     `json:"batchDelayMs"`
	PersistResults  *bool   `json:"persistResults"`
	ComputeAccuracy *bool   `json:"computeAccuracy"`
}

type sessionResponse struct {
	SessionID      string  `json:"sessionId"`
	PromptID       string  `json:"promptId"`
	PromptName     string  `json:"promptName"`
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	Parallelism    int     `json:"parallelism"`
	TotalItems     int     `json:"totalItems"`
	ProcessedCount int     `json:"processedCount"`
	CorrectCount   int     `json:"correctCount"`
	ErrorCount     int     `json:"errorCount"`
	AccuracyPct    float64 `json:"accuracyPct"`
	TotalTimeSec   float64 `json:"totalTimeSec"`
	AvgTimeSec     float64 `json:"avgTimeSec"`
	TotalCost      float64 `json:"totalCost"`
	AvgCost        float64 `json:"avgCost"`
	TotalTokens    int64   `json:"totalTokens"`
	Status         string  `json:"status"`
	StartedAt      string  `json:"startedAt"`
	EndedAt        *string `json:"endedAt,omitempty"`
}

type resultResponse struct {
	ID            string  `json:"id"`
	NoticeID      string  `json:"noticeId"`
	Label         string  `json:"label"`
	Unrecognized  bool    `json:"unrecognized"`
	GroundTruth   *string `json:"groundTruth,omitempty"`
	Correct       *bool   `json:"correct,omitempty"`
	ProcessingSec float64 `json:"processingSec"`
	TokensInput   int     `json:"tokensInput"`
	TokensOutput  int     `json:"tokensOutput"`
	Cost          float64 `json:"cost"`
	RawResponse   string  `json:"rawResponse"`
	Error         *string `json:"error,omitempty"`
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	cfg := Config{
		Provider:        req.Config.Provider,
		Model:           req.Config.Model,
		Temperature:     req.Config.Temperature,
		MaxTokens:       req.Config.MaxTokens,
		Timeout:         time.Duration(req.Config.TimeoutSeconds) * time.Second,
		Parallelism:     req.Config.Parallelism,
		BatchDelay:      time.Duration(req.Config.BatchDelayMs) * time.Millisecond,
		PersistResults:  true,
		ComputeAccuracy: true,
	}
	if req.Config.PersistResults != nil {
		cfg.PersistResults = *req.Config.PersistResults
	}
	if req.Config.ComputeAccuracy != nil {
		cfg.ComputeAccuracy = *req.Config.ComputeAccuracy
	}

	sess, err := h.Svc.Start(c.Request.Context(), req.PromptID, req.NoticeIDs, cfg)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start session", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, toSessionResponse(sess))
}

func (h *Handler) cancel(c *gin.Context) {
	id := c.Param("id")
	if !h.Svc.Cancel(id) {
		respond.Error(c, http.StatusNotFound, "not_found", "session is not active", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"sessionId": id, "cancelled": true})
}

func (h *Handler) progress(c *gin.Context) {
	p, err := h.Svc.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeLookupError(c, err, "session not found")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"sessionId": p.SessionID,
		"processed": p.Processed,
		"total":     p.Total,
		"status":    string(p.Status),
		"cancelled": p.Cancelled,
	})
}

func (h *Handler) get(c *gin.Context) {
	sess, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeLookupError(c, err, "session not found")
		return
	}
	respond.JSON(c, http.StatusOK, toSessionResponse(sess))
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	sessions, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list sessions", nil)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toSessionResponse(sess))
	}
	respond.JSON(c, http.StatusOK, gin.H{"sessions": out})
}

func (h *Handler) results(c *gin.Context) {
	results, err := h.Svc.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeLookupError(c, err, "session not found")
		return
	}

	out := make([]resultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, resultResponse{
			ID:            res.ID,
			NoticeID:      res.NoticeID,
			Label:         res.Label,
			Unrecognized:  res.Unrecognized,
			GroundTruth:   res.GroundTruth,
			Correct:       res.Correct,
			ProcessingSec: res.ProcessingSec,
			TokensInput:   res.TokensInput,
			TokensOutput:  res.TokensOutput,
			Cost:          res.Cost,
			RawResponse:   res.RawResponse,
			Error:         res.ErrorMessage,
		})
	}
	respond.JSON(c, http.StatusOK, gin.H{"results": out})
}

func writeLookupError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", notFoundMsg, nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch session", nil)
	}
}

func toSessionResponse(s Session) sessionResponse {
	resp := sessionResponse{
		SessionID:      s.ID,
		PromptID:       s.PromptID,
		PromptName:     s.PromptName,
		Provider:       s.Config.Provider,
		Model:          s.Config.Model,
		Parallelism:    s.Config.Parallelism,
		TotalItems:     s.TotalItems,
		ProcessedCount: s.ProcessedCount,
		CorrectCount:   s.CorrectCount,
		ErrorCount:     s.ErrorCount,
		AccuracyPct:    s.AccuracyPct,
		TotalTimeSec:   s.TotalTimeSec,
		TotalCost:      s.TotalCost,
		TotalTokens:    s.TotalTokens,
		Status:         string(s.Status),
		StartedAt:      s.StartedAt.Format(time.RFC3339),
	}
	if s.ProcessedCount > 0 {
		resp.AvgTimeSec = s.TotalTimeSec / float64(s.ProcessedCount)
		resp.AvgCost = s.TotalCost / float64(s.ProcessedCount)
	}
	if s.EndedAt != nil {
		t := s.EndedAt.Format(time.RFC3339)
		resp.EndedAt = &t
	}
	return resp
}
