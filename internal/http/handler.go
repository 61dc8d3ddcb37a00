package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taller-service/internal/domain/fleet"
	"taller-service/internal/http/middleware"
	"taller-service/internal/report"
	"taller-service/internal/service"
	"taller-service/internal/storage"
	"taller-service/internal/utils"
)

type Handler struct {
	fleetService *service.FleetService
	alertService *service.AlertService
	attachments  *storage.Client
	log          zerolog.Logger
}

// NewHandler wires the HTTP surface. alertService and attachments may be nil
// when push or object storage is not configured; the matching endpoints then
// answer 503.
func NewHandler(
	fleetService *service.FleetService,
	alertService *service.AlertService,
	attachments *storage.Client,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		fleetService: fleetService,
		alertService: alertService,
		attachments:  attachments,
		log:          log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	public := r.Group("/api/v1")
	{
		public.GET("/vehicles", h.listVehicles)
		public.GET("/vehicles/:plate/status", h.getVehicleStatus)
		public.GET("/vehicles/:plate/logs", h.listMaintenanceLogs)
		public.GET("/vehicles/:plate/logs/export", h.exportMaintenanceLogs)
		public.GET("/intervention-types", h.listInterventionTypes)
	}

	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/maintenance/logs", h.createMaintenanceLog)
		protected.PUT("/maintenance/logs/:id", h.updateMaintenanceLog)
		protected.POST("/attachments", h.uploadAttachment)
		protected.POST("/devices", h.registerDevice)
		protected.POST("/alerts/scan", h.runAlertScan)
	}
}

func (h *Handler) listVehicles(c *gin.Context) {
	vehicles, err := h.fleetService.ListVehicles(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list vehicles")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, successResponse(vehicles))
}

func (h *Handler) getVehicleStatus(c *gin.Context) {
	plate := utils.NormalizePlate(c.Param("plate"))

	view, err := h.fleetService.GetVehicleStatus(c.Request.Context(), plate)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(view))
}

func (h *Handler) listMaintenanceLogs(c *gin.Context) {
	plate := utils.NormalizePlate(c.Param("plate"))

	limit := 20
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	logs, err := h.fleetService.ListMaintenanceLogs(c.Request.Context(), plate, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(logs))
}

func (h *Handler) exportMaintenanceLogs(c *gin.Context) {
	plate := utils.NormalizePlate(c.Param("plate"))

	logs, err := h.fleetService.ListMaintenanceLogs(c.Request.Context(), plate, 100)
	if err != nil {
		h.handleError(c, err)
		return
	}

	workbook, err := report.BuildMaintenanceHistory(logs)
	if err != nil {
		h.log.Error().Err(err).Str("plate", plate).Msg("failed to build history export")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to serialize history export")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="historial_`+plate+`.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *Handler) listInterventionTypes(c *gin.Context) {
	category := fleet.Category(strings.TrimSpace(c.Query("category")))
	if category == "" {
		c.JSON(http.StatusBadRequest, errorResponse("category parameter is required"))
		return
	}

	types, err := h.fleetService.ListInterventionTypes(c.Request.Context(), category)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(types))
}

type maintenanceLogRequest struct {
	Plate                string   `json:"plate" binding:"required"`
	KmAtService          int      `json:"km_at_service"`
	Category             string   `json:"category" binding:"required"`
	Description          string   `json:"description"`
	InterventionTypeName string   `json:"intervention_type_name"`
	TirePositions        []string `json:"tire_positions"`
	AttachmentURL        string   `json:"attachment_url"`
	NewExpiryDate        string   `json:"new_expiry_date"`
}

func (req maintenanceLogRequest) toInput(userID string) service.SubmitLogInput {
	positions := make([]fleet.TirePosition, 0, len(req.TirePositions))
	for _, p := range req.TirePositions {
		positions = append(positions, fleet.TirePosition(p))
	}
	return service.SubmitLogInput{
		Plate:                utils.NormalizePlate(req.Plate),
		UserID:               userID,
		KmAtService:          req.KmAtService,
		Category:             fleet.Category(req.Category),
		Description:          req.Description,
		InterventionTypeName: req.InterventionTypeName,
		TirePositions:        positions,
		AttachmentURL:        req.AttachmentURL,
		NewExpiryDate:        req.NewExpiryDate,
	}
}

func (h *Handler) createMaintenanceLog(c *gin.Context) {
	var req maintenanceLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	entry, err := h.fleetService.SubmitMaintenanceLog(c.Request.Context(), req.toInput(middleware.UserID(c)))
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().
		Str("log_id", entry.ID.String()).
		Str("plate", entry.Plate).
		Str("user_id", entry.UserID).
		Msg("maintenance log created")

	c.JSON(http.StatusCreated, successResponse(entry))
}

func (h *Handler) updateMaintenanceLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid log id"))
		return
	}

	var req maintenanceLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := req.toInput(middleware.UserID(c))
	input.ID = &id

	entry, err := h.fleetService.SubmitMaintenanceLog(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(entry))
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	if h.attachments == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse("attachment storage not configured"))
		return
	}

	plate := utils.NormalizePlate(c.PostForm("plate"))
	if plate == "" {
		c.JSON(http.StatusBadRequest, errorResponse("plate field is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("file field is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := h.attachments.UploadAttachment(c.Request.Context(), plate, file, fileHeader.Size, contentType)
	if err != nil {
		h.log.Error().Err(err).Str("plate", plate).Msg("failed to upload attachment")
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, successResponse(gin.H{"url": url}))
}

func (h *Handler) registerDevice(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if err := h.fleetService.RegisterDevice(c.Request.Context(), req.Token); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) runAlertScan(c *gin.Context) {
	if h.alertService == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse("push notifications not configured"))
		return
	}

	summary, err := h.alertService.Run(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("manual alert scan failed")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, successResponse(summary))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
