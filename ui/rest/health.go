package rest

import (
	"github.com/AzielCF/az-postr/agent/domain"
	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/AzielCF/az-postr/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Repo     domain.IAgentRepository
	Platform domain.PlatformClient
}

func InitRestHealth(app fiber.Router, repo domain.IAgentRepository, platform domain.PlatformClient) Health {
	handler := Health{Repo: repo, Platform: platform}

	app.Get("/health/status", handler.GetStatus)
	app.Post("/health/platform/check", handler.CheckPlatform)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	pending, err := h.Repo.ListPosts(c.UserContext(), domain.PostFilter{Status: common.PostStatusPending})
	if err != nil {
		return c.Status(500).JSON(utils.ResponseData{
			Status:  500,
			Code:    "INTERNAL_SERVER_ERROR",
			Message: err.Error(),
		})
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: map[string]any{
			"store":         "ok",
			"pending_posts": len(pending),
		},
	})
}

func (h *Health) CheckPlatform(c *fiber.Ctx) error {
	if err := h.Platform.VerifyCredentials(c.UserContext()); err != nil {
		return c.Status(502).JSON(utils.ResponseData{
			Status:  502,
			Code:    "PLATFORM_ERROR",
			Message: err.Error(),
		})
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Platform credentials verified",
	})
}
