package rest

import (
	"github.com/AzielCF/az-postr/pkg/eventworker"
	"github.com/gofiber/fiber/v2"
)

var eventPool *eventworker.EventWorkerPool

// SetEventPool wires the event worker pool into the stats endpoint.
func SetEventPool(pool *eventworker.EventWorkerPool) {
	eventPool = pool
}

// GetWorkerPoolStats returns real-time worker pool statistics
func GetWorkerPoolStats(c *fiber.Ctx) error {
	if eventPool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Event worker pool not initialized",
		})
	}
	return c.JSON(eventPool.GetStats())
}
