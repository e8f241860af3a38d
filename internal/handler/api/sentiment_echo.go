package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"MarketMood/internal/domain/models"
	domrepo "MarketMood/internal/domain/repository"
	"MarketMood/internal/scheduler"
	"MarketMood/internal/usecase"
	xhttp "MarketMood/pkg/http"
	xlogger "MarketMood/pkg/logger"
)

// SentimentEchoHandler implements the Echo-based HTTP surface.
type SentimentEchoHandler struct {
	logger     *xlogger.Logger
	orch       *usecase.Orchestrator
	subs       domrepo.SubscriptionStore
	repo       domrepo.ReadingRepository
	notifier   *scheduler.Notifier
	adminToken string
}

func NewSentimentEchoHandler(
	logger *xlogger.Logger,
	orch *usecase.Orchestrator,
	subs domrepo.SubscriptionStore,
	repo domrepo.ReadingRepository,
	notifier *scheduler.Notifier,
	adminToken string,
) *SentimentEchoHandler {
	return &SentimentEchoHandler{
		logger:     logger,
		orch:       orch,
		subs:       subs,
		repo:       repo,
		notifier:   notifier,
		adminToken: adminToken,
	}
}

func (h *SentimentEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	g := e.Group("/api")
	g.GET("/indicators", h.Indicators)
	g.GET("/indicators/:indicator", h.Indicator)
	g.POST("/indicators/:indicator/refresh", h.Refresh)
	g.GET("/indicators/:indicator/history", h.History)
	g.GET("/cache/status", h.CacheStatus)

	g.PUT("/subscriptions/:id", h.UpsertSubscription)
	g.GET("/subscriptions/:id", h.GetSubscription)
	g.DELETE("/subscriptions/:id", h.DisableSubscription)

	g.POST("/broadcast", h.Broadcast)
}

type indicatorResponse struct {
	Reading   *models.Reading  `json:"reading"`
	Freshness models.Freshness `json:"freshness"`
}

func (h *SentimentEchoHandler) Indicators(c echo.Context) error {
	ctx := c.Request().Context()
	out := make(map[models.Indicator]indicatorResponse, len(models.Indicators()))
	for _, ind := range models.Indicators() {
		r, fresh, err := h.orch.Get(ctx, ind)
		if err != nil {
			// Partial responses are fine; unavailable indicators are omitted.
			continue
		}
		out[ind] = indicatorResponse{Reading: r, Freshness: fresh}
	}
	if len(out) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("sentiment data unavailable"))
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *SentimentEchoHandler) Indicator(c echo.Context) error {
	ind := models.Indicator(c.Param("indicator"))
	if !ind.Valid() {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("unknown indicator %q", ind))
	}
	r, fresh, err := h.orch.Get(c.Request().Context(), ind)
	if err != nil {
		return h.dataError(c, ind, err)
	}
	return xhttp.SuccessResponse(c, indicatorResponse{Reading: r, Freshness: fresh})
}

func (h *SentimentEchoHandler) Refresh(c echo.Context) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}
	ind := models.Indicator(c.Param("indicator"))
	if !ind.Valid() {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("unknown indicator %q", ind))
	}
	r, fresh, err := h.orch.ForceRefresh(c.Request().Context(), ind)
	if err != nil {
		return h.dataError(c, ind, err)
	}
	return xhttp.SuccessResponse(c, indicatorResponse{Reading: r, Freshness: fresh})
}

func (h *SentimentEchoHandler) History(c echo.Context) error {
	ind := models.Indicator(c.Param("indicator"))
	if !ind.Valid() {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("unknown indicator %q", ind))
	}
	since := time.Now().AddDate(0, 0, -7)
	if raw := c.QueryParam("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("since must be RFC3339, got %q", raw))
		}
		since = t
	}
	rows, err := h.orch.History(c.Request().Context(), ind, since)
	if err != nil {
		h.logger.Error("history query error", xlogger.String("indicator", string(ind)), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SentimentEchoHandler) CacheStatus(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.Status(c.Request().Context()))
}

func (h *SentimentEchoHandler) UpsertSubscription(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("subscriber id must be an integer"))
	}
	req := &models.SubscriptionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	sub := &models.Subscription{
		SubscriberID: id,
		NotifyTime:   req.NotifyTime,
		Timezone:     req.Timezone,
		Enabled:      enabled,
		Language:     req.Language,
	}
	if err := h.subs.Upsert(c.Request().Context(), sub); err != nil {
		if errors.Is(err, models.ErrInvalidSubscription) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		h.logger.Error("subscription upsert error", xlogger.Int64("subscriber", id), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, sub)
}

func (h *SentimentEchoHandler) GetSubscription(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("subscriber id must be an integer"))
	}
	sub, err := h.subs.Get(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("subscription get error", xlogger.Int64("subscriber", id), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if sub == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no subscription for %d", id))
	}
	return xhttp.SuccessResponse(c, sub)
}

func (h *SentimentEchoHandler) DisableSubscription(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("subscriber id must be an integer"))
	}
	if err := h.subs.Disable(c.Request().Context(), id); err != nil {
		h.logger.Error("subscription disable error", xlogger.Int64("subscriber", id), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

// Broadcast queues a paced operator message to every enabled subscriber. The
// send loop runs detached so a large subscriber base does not hold the
// request open.
func (h *SentimentEchoHandler) Broadcast(c echo.Context) error {
	if err := h.requireAdmin(c); err != nil {
		return err
	}
	req := &models.BroadcastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	go h.notifier.Broadcast(context.Background(), req.Text)
	return xhttp.SuccessResponse(c, map[string]string{"status": "queued"})
}

func (h *SentimentEchoHandler) Healthz(c echo.Context) error {
	if err := h.repo.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("storage unreachable"))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *SentimentEchoHandler) requireAdmin(c echo.Context) error {
	if h.adminToken == "" {
		return xhttp.AppErrorResponse(c, xhttp.ForbiddenError("admin surface disabled"))
	}
	token := c.Request().Header.Get("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("invalid admin token"))
	}
	return nil
}

func (h *SentimentEchoHandler) dataError(c echo.Context, ind models.Indicator, err error) error {
	if errors.Is(err, models.ErrDataUnavailable) {
		h.logger.Warn("data unavailable", xlogger.String("indicator", string(ind)), xlogger.Error(err))
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_DATA_UNAVAILABLE", "", "sentiment data unavailable", http.StatusServiceUnavailable).WithError(err))
	}
	h.logger.Error("indicator read error", xlogger.String("indicator", string(ind)), xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}
