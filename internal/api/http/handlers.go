package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/wms-platform/outbound-scan-service/pkg/errors"
	"github.com/wms-platform/outbound-scan-service/pkg/logging"
	"github.com/wms-platform/outbound-scan-service/pkg/middleware"

	"github.com/wms-platform/outbound-scan-service/internal/application"
	"github.com/wms-platform/outbound-scan-service/internal/domain"
)

// Handlers holds the HTTP handlers for the outbound scan service
type Handlers struct {
	stations *application.StationService
	outbound *application.OutboundService
	logger   *logging.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(stations *application.StationService, outbound *application.OutboundService, logger *logging.Logger) *Handlers {
	return &Handlers{
		stations: stations,
		outbound: outbound,
		logger:   logger.WithComponent("http_handlers"),
	}
}

// OpenStationRequest is the request body for opening a station
type OpenStationRequest struct {
	Factory  string `json:"factory" binding:"required,factory_code"`
	Operator string `json:"operator" binding:"omitempty,safe_string"`
}

// OpenStation handles POST /api/v1/stations/:stationId/open
func (h *Handlers) OpenStation(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	stationID := c.Param("stationId")
	var req OpenStationRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	state, err := h.stations.OpenStation(c.Request.Context(), application.OpenStationCommand{
		StationID: stationID,
		Factory:   req.Factory,
		Operator:  req.Operator,
	})
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// ScanRequest is the request body for submitting a raw scan
type ScanRequest struct {
	Raw    string `json:"raw" binding:"required"`
	Source string `json:"source" binding:"omitempty,oneof=scanner camera"`
}

// SubmitScan handles POST /api/v1/stations/:stationId/scans
func (h *Handlers) SubmitScan(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	stationID := c.Param("stationId")
	var req ScanRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	err := h.stations.IngestScan(c.Request.Context(), application.IngestScanCommand{
		StationID: stationID,
		Raw:       req.Raw,
		Source:    req.Source,
	})
	if err != nil {
		h.respondError(responder, err)
		return
	}

	// The scan is applied asynchronously in arrival order; the
	// station state endpoint reflects the outcome.
	c.JSON(http.StatusAccepted, gin.H{
		"stationId": stationID,
		"accepted":  true,
	})
}

// Commit handles POST /api/v1/stations/:stationId/commit
func (h *Handlers) Commit(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.stations.Commit(c.Request.Context(), application.CommitCommand{
		StationID: c.Param("stationId"),
	})
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Reset handles POST /api/v1/stations/:stationId/reset
func (h *Handlers) Reset(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	state, err := h.stations.Reset(c.Request.Context(), application.ResetCommand{
		StationID: c.Param("stationId"),
	})
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// GetStation handles GET /api/v1/stations/:stationId
func (h *Handlers) GetStation(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	state, err := h.stations.GetState(c.Request.Context(), application.GetStationQuery{
		StationID: c.Param("stationId"),
	})
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// ListOutbound handles GET /api/v1/outbound
func (h *Handlers) ListOutbound(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	records, err := h.outbound.List(c.Request.Context(), listQuery(c))
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}

// ExportOutbound handles GET /api/v1/outbound/export
func (h *Handlers) ExportOutbound(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	data, filename, err := h.outbound.Export(c.Request.Context(), listQuery(c))
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.DataFromReader(http.StatusOK,
		int64(len(data)),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		bytes.NewReader(data),
		nil,
	)
}

func listQuery(c *gin.Context) application.ListOutboundQuery {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return application.ListOutboundQuery{
		ProductionOrder: c.Query("productionOrder"),
		Limit:           limit,
	}
}

func (h *Handlers) respondError(responder *middleware.ErrorResponder, err error) {
	switch {
	case errors.Is(err, domain.ErrStationNotFound):
		responder.RespondNotFound("station")
	case errors.Is(err, domain.ErrNothingToCommit):
		responder.RespondUnprocessable(err.Error())
	default:
		if appErr, ok := apperrors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
	}
}
