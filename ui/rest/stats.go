package rest

import (
	"time"

	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/AzielCF/az-postr/analytics"
	"github.com/AzielCF/az-postr/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Stats struct {
	Recorder *analytics.Recorder
}

func InitRestStats(app fiber.Router, recorder *analytics.Recorder) Stats {
	handler := Stats{Recorder: recorder}

	app.Get("/stats", handler.Summary)
	app.Post("/stats/engagement", handler.RecordEngagement)

	return handler
}

func (h *Stats) Summary(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)

	summary, err := h.Recorder.Summarize(c.UserContext(), days)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Analytics summary retrieved",
		Results: summary,
	})
}

type engagementRequest struct {
	PlatformID  string `json:"platform_id"`
	Likes       int    `json:"likes"`
	Reposts     int    `json:"reposts"`
	Replies     int    `json:"replies"`
	Impressions int    `json:"impressions"`
}

// RecordEngagement ingests engagement numbers for an already published post.
func (h *Stats) RecordEngagement(c *fiber.Ctx) error {
	var request engagementRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	if request.PlatformID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ResponseData{
			Status:  400,
			Code:    "VALIDATION_ERROR",
			Message: "platform_id is required",
		})
	}

	h.Recorder.Record(c.UserContext(), common.AnalyticsEvent{
		Kind:        common.AnalyticsEngagementSnapshot,
		SubjectID:   request.PlatformID,
		PlatformID:  request.PlatformID,
		Likes:       request.Likes,
		Reposts:     request.Reposts,
		Replies:     request.Replies,
		Impressions: request.Impressions,
		At:          time.Now().UTC(),
	})

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Engagement snapshot queued",
	})
}
