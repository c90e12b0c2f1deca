package main

import (
	"github.com/hibiken/asynq"

	inventoryJob "pharmacy-backend/internal/domains/inventory/job"
	"pharmacy-backend/internal/shared"
	"pharmacy-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	reorderForecast *inventoryJob.ReorderForecastHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		reorderForecast: inventoryJob.NewReorderForecastHandler(
			c.InventoryStore,
			c.Forecaster,
		),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeReorderForecast, h.reorderForecast.ProcessTask)
}
