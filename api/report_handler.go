package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopbooks/internal/reports"
)

type reportHandler struct {
	reportService *reports.Service
	now           func() time.Time
	logger        *zap.Logger
}

// NewReportHandler creates a new report handler. now supplies the instant
// reports are anchored on.
func NewReportHandler(reportService *reports.Service, now func() time.Time, logger *zap.Logger) *reportHandler {
	if now == nil {
		now = time.Now
	}
	return &reportHandler{
		reportService: reportService,
		now:           now,
		logger:        logger,
	}
}

// handleReport handles GET /reports/:type for daily, weekly or monthly.
func (h *reportHandler) handleReport(ctx *gin.Context) {
	report, err := h.reportService.Report(ctx.Request.Context(), reports.Type(ctx.Param("type")), h.now())
	if err != nil {
		if errors.Is(err, reports.ErrInvalidReportType) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to build report", zap.String("type", ctx.Param("type")), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}
	ctx.JSON(http.StatusOK, report)
}

func (h *reportHandler) handleDashboard(ctx *gin.Context) {
	dashboard, err := h.reportService.Dashboard(ctx.Request.Context(), h.now())
	if err != nil {
		h.logger.Error("failed to build dashboard", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build dashboard"})
		return
	}
	ctx.JSON(http.StatusOK, dashboard)
}

// handleActivity handles GET /activity?limit=.
func (h *reportHandler) handleActivity(ctx *gin.Context) {
	limit := 0
	if l := ctx.Query("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 0 || limit > reports.MaxActivityLimit {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 0 and %d", reports.MaxActivityLimit)})
			return
		}
	}

	feed, err := h.reportService.RecentActivity(ctx.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load recent activity", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recent activity"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": feed})
}
