package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/replenish/backend-go/internal/domain"
	"github.com/andresuchdata/replenish/backend-go/internal/report"
	"github.com/andresuchdata/replenish/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ReplenishmentHandler struct {
	service *service.ReplenishmentService
}

func NewReplenishmentHandler(service *service.ReplenishmentService) *ReplenishmentHandler {
	return &ReplenishmentHandler{service: service}
}

// parseRequest reads lookback_weeks and warehouse_id; both are optional
func (h *ReplenishmentHandler) parseRequest(c *gin.Context) (domain.ReplenishmentRequest, error) {
	var req domain.ReplenishmentRequest

	if raw := strings.TrimSpace(c.Query("lookback_weeks")); raw != "" {
		weeks, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("lookback_weeks must be an integer")
		}
		req.LookbackWeeks = weeks
	}

	if raw := strings.TrimSpace(c.Query("warehouse_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, fmt.Errorf("warehouse_id must be an integer")
		}
		req.WarehouseID = &id
	}

	return req, nil
}

func (h *ReplenishmentHandler) GetSuggestions(c *gin.Context) {
	req, err := h.parseRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestions, err := h.service.GetSuggestions(c.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("replenishment: compute suggestions failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to compute replenishment suggestions",
			"details": err.Error(),
		})
		return
	}

	lookback := req.LookbackWeeks
	if lookback <= 0 {
		lookback = h.service.DefaultLookbackWeeks()
	}

	c.JSON(http.StatusOK, gin.H{
		"items":          suggestions,
		"total":          len(suggestions),
		"lookback_weeks": lookback,
		"warehouse_id":   req.WarehouseID,
	})
}

func (h *ReplenishmentHandler) ExportSuggestions(c *gin.Context) {
	req, err := h.parseRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestions, err := h.service.GetSuggestions(c.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("replenishment: export suggestions failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to compute replenishment suggestions",
			"details": err.Error(),
		})
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, suggestions); err != nil {
		log.Error().Err(err).Msg("replenishment: render suggestions csv failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render csv", "details": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="replenishment_suggestions.csv"`)
	c.Data(http.StatusOK, report.CSVContentType, buf.Bytes())
}

func (h *ReplenishmentHandler) GetPolicy(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id must be an integer"})
		return
	}

	policy, own, err := h.service.ResolvePolicy(c.Request.Context(), productID)
	if err != nil {
		log.Error().Err(err).Int64("product_id", productID).Msg("replenishment: resolve policy failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load replenishment policy",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"policy":  policy,
		"default": !own,
	})
}

func (h *ReplenishmentHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.InvalidateCache(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("replenishment: invalidate cache failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to invalidate cache",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

func (h *ReplenishmentHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
