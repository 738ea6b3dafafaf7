package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"pothole-service/models"
)

const (
	EndPointHealth               = "/health"
	EndPointGetReports           = "/reports"
	EndPointGetReportsByArea     = "/reports/area"
	EndPointGetReportsBySeverity = "/reports/severity/:level"
	EndPointGetStats             = "/stats"
)

// ReportService is the persistence surface the HTTP API reads from.
type ReportService interface {
	GetReports(ctx context.Context, limit int) ([]models.Report, error)
	GetReportsByArea(ctx context.Context, lat, lon, radiusKM float64) ([]models.Report, error)
	GetReportsBySeverity(ctx context.Context, level models.SeverityLevel, limit int) ([]models.Report, error)
	GetStatistics(ctx context.Context, windowDays int) (*models.Stats, error)
}

type ReportsHandler struct {
	reportService ReportService
}

func NewReportsHandler(reportService ReportService) *ReportsHandler {
	return &ReportsHandler{
		reportService: reportService,
	}
}

// SetupRouter builds the gin router with CORS and all API routes.
func SetupRouter(h *ReportsHandler) *gin.Engine {
	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET(EndPointHealth, h.HealthCheck)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET(EndPointGetReports, h.GetReports)
		apiV1.GET(EndPointGetReportsByArea, h.GetReportsByArea)
		apiV1.GET(EndPointGetReportsBySeverity, h.GetReportsBySeverity)
		apiV1.GET(EndPointGetStats, h.GetStats)
	}

	return router
}

// HealthCheck returns a simple health status
func (h *ReportsHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pothole-service",
	})
}

func (h *ReportsHandler) GetReports(c *gin.Context) {
	limit, err := intQuery(c, "limit", 100)
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("Parsing limit: %v", err))
		return
	}

	reports, err := h.reportService.GetReports(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("Error getting reports: %w", err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *ReportsHandler) GetReportsByArea(c *gin.Context) {
	lat, err := floatQuery(c, "lat")
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("Parsing lat: %v", err))
		return
	}
	lon, err := floatQuery(c, "lon")
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("Parsing lon: %v", err))
		return
	}
	radiusKM, err := floatQuery(c, "radius_km")
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("Parsing radius_km: %v", err))
		return
	}
	if radiusKM <= 0 {
		c.String(http.StatusBadRequest, "radius_km must be positive")
		return
	}

	reports, err := h.reportService.GetReportsByArea(c.Request.Context(), lat, lon, radiusKM)
	if err != nil {
		log.Errorf("Error getting reports by area: %w", err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *ReportsHandler) GetReportsBySeverity(c *gin.Context) {
	level := c.Param("level")
	if !models.ValidSeverityLevel(level) {
		c.String(http.StatusBadRequest, fmt.Sprintf("Unknown severity level %q", level))
		return
	}

	limit, err := intQuery(c, "limit", 100)
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("Parsing limit: %v", err))
		return
	}

	reports, err := h.reportService.GetReportsBySeverity(c.Request.Context(), models.SeverityLevel(level), limit)
	if err != nil {
		log.Errorf("Error getting %s reports: %w", level, err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *ReportsHandler) GetStats(c *gin.Context) {
	days, err := intQuery(c, "days", 7)
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("Parsing days: %v", err))
		return
	}

	stats, err := h.reportService.GetStatistics(c.Request.Context(), days)
	if err != nil {
		log.Errorf("Error getting statistics: %w", err)
		c.String(http.StatusInternalServerError, fmt.Sprint(err))
		return
	}

	c.IndentedJSON(http.StatusOK, stats)
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func floatQuery(c *gin.Context, name string) (float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	return strconv.ParseFloat(raw, 64)
}
