package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talentra/hrms_backend/models"
	"github.com/talentra/hrms_backend/services"
)

// ConfigController exposes the system configuration to admins. Writes go
// through the config service so every process instance picks up the new
// values immediately.
type ConfigController struct {
	Config *services.ConfigService
}

// NewConfigController creates a new config controller
func NewConfigController(config *services.ConfigService) *ConfigController {
	return &ConfigController{Config: config}
}

// GetConfig returns the current system configuration
func (cc *ConfigController) GetConfig(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := cc.Config.Get(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve configuration",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Configuration retrieved successfully",
		Data:    cfg,
	})
}

// UpdateConfig replaces the system configuration
func (cc *ConfigController) UpdateConfig(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var cfg models.SystemConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if cfg.AutoAbsence.Time != "" {
		if _, err := time.Parse("15:04", cfg.AutoAbsence.Time); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid autoAbsence.time, expected hh:mm",
			})
		}
	}
	if cfg.AutoAbsence.Timezone != "" {
		if _, err := time.LoadLocation(cfg.AutoAbsence.Timezone); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid autoAbsence.timezone: " + cfg.AutoAbsence.Timezone,
			})
		}
	}
	if cfg.SLA.DeadlineHours <= 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "sla.deadlineHours must be positive",
		})
	}
	if cfg.SLA.Reminder1Hours < 0 || cfg.SLA.Reminder2Hours < 0 || cfg.SLA.EscalateAfterOverdueHours < 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "SLA reminder and escalation hours must not be negative",
		})
	}

	if err := cc.Config.Update(ctx, cfg); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update configuration",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Configuration updated successfully",
		Data:    cfg,
	})
}
