package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/lysyi3m/product-sync/app/cache"
	"github.com/lysyi3m/product-sync/app/cfg"
	"github.com/lysyi3m/product-sync/app/database"
	"github.com/lysyi3m/product-sync/app/importer"
	"github.com/lysyi3m/product-sync/app/sources"
	"github.com/lysyi3m/product-sync/app/tasks"
)

func NewHandler(configCache *sources.ConfigCache, productRepo database.ProductRepository,
	aggregateCache cache.CacheInterface, runner tasks.ImportRunnerInterface,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		productRepo: productRepo,
		configCache: configCache,
		cache:       aggregateCache,
		runner:      runner,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "healthy",
		"version":   cfg.GetVersion(),
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if productCount, err := h.productRepo.GetProductCount(); err == nil {
		health["products"] = productCount
	}

	health["loaded_sources"] = h.configCache.GetConfigCount()

	if h.cache != nil {
		health["cache"] = h.cache.Health()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetItems(c *gin.Context) {
	filter := database.ProductFilter{
		Category: c.Query("category"),
		Page:     1,
		PageSize: defaultPageSize,
	}

	if raw := c.Query("price_min"); raw != "" {
		priceMin, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'price_min' parameter"})
			return
		}
		filter.PriceMin = &priceMin
	}

	if raw := c.Query("price_max"); raw != "" {
		priceMax, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'price_max' parameter"})
			return
		}
		filter.PriceMax = &priceMax
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'page' parameter"})
			return
		}
		filter.Page = page
	}

	products, total, err := h.productRepo.ListProducts(filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_products", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(products))
	for _, product := range products {
		items = append(items, map[string]interface{}{
			"external_id": product.ExternalID,
			"name":        product.Name,
			"category":    product.Category,
			"price":       product.Price,
			"updated_at":  product.UpdatedAt,
			"created_at":  product.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"items":     items,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (h *Handler) GetAvgPriceByCategory(c *gin.Context) {
	cached, err := h.cache.Get(cache.AvgPriceByCategoryKey)
	if err != nil {
		slog.Warn("Cache read failed", "key", cache.AvgPriceByCategoryKey, "error", err)
	} else if cached != "" {
		c.JSON(http.StatusOK, gin.H{
			"data":   json.RawMessage(cached),
			"cached": true,
		})
		return
	}

	stats, err := h.productRepo.AvgPriceByCategory()
	if err != nil {
		slog.Error("Database error", "operation", "avg_price_by_category", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Cache failures degrade to uncached responses; the data is already in hand.
	if data, err := json.Marshal(stats); err == nil {
		if err := h.cache.Set(cache.AvgPriceByCategoryKey, data, cache.AggregateTTL); err != nil {
			slog.Warn("Cache write failed", "key", cache.AvgPriceByCategoryKey, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   stats,
		"cached": false,
	})
}

func (h *Handler) ImportProducts(c *gin.Context) {
	sourceName := c.Query("source")
	urlOverride := c.Query("url")
	runAsync := c.Query("async") == "true" || c.Query("async") == "1"

	var sourceConfig *sources.Config

	if sourceName == "" {
		// With a single configured source the parameter is unambiguous.
		configs := h.configCache.GetConfigs()
		if len(configs) != 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'source' parameter"})
			return
		}
		for _, config := range configs {
			sourceConfig = config
		}
	} else {
		config, err := h.configCache.GetConfig(sourceName)
		if err != nil {
			slog.Error("Source configuration not found", "source", sourceName, "error", err)
			c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
			return
		}
		sourceConfig = config
	}

	if runAsync {
		task := tasks.NewImportProductsTask(sourceConfig, urlOverride, h.runner)
		if err := h.scheduler.EnqueueTask(task); err != nil {
			slog.Error("Error enqueueing import task", "source", sourceConfig.Name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to enqueue import task",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status": "queued",
			"source": sourceConfig.Name,
			"task": gin.H{
				"id":   task.ID,
				"type": task.Type,
			},
		})
		return
	}

	opts := importer.RunOptions{
		Source:       sourceConfig.Name,
		URL:          sourceConfig.URL,
		FallbackPath: sourceConfig.FallbackPath,
		Timeout:      time.Duration(sourceConfig.Settings.Timeout) * time.Second,
		Attempt:      1,
	}
	if urlOverride != "" {
		opts.URL = urlOverride
	}

	summary, err := h.runner.Run(c.Request.Context(), opts)
	if err != nil {
		slog.Error("Import failed", "source", sourceConfig.Name, "error", err)

		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, importer.ErrSourceUnavailable):
			status = http.StatusBadGateway
		case errors.Is(err, importer.ErrSchema):
			status = http.StatusUnprocessableEntity
		}

		c.JSON(status, gin.H{
			"error":   "Import failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}
