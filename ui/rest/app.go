package rest

import (
	coreconfig "github.com/AzielCF/az-postr/core/config"
	settingsApp "github.com/AzielCF/az-postr/core/settings/application"
	"github.com/AzielCF/az-postr/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type App struct {
	Settings *settingsApp.SettingsService
}

func InitRestApp(app fiber.Router, settings *settingsApp.SettingsService) App {
	handler := App{Settings: settings}
	app.Get("/app/version", handler.GetVersion)
	app.Get("/app/settings", handler.GetSettings)
	app.Patch("/app/settings", handler.UpdateSettings)

	return handler
}

func (handler *App) GetVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": coreconfig.Global.App.Version,
	})
}

func (handler *App) GetSettings(c *fiber.Ctx) error {
	results := fiber.Map{
		"environment": coreconfig.GetAllSettings(),
	}
	if handler.Settings != nil {
		dynamic, err := handler.Settings.GetDynamicSettings(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(utils.ResponseData{
				Status:  500,
				Code:    "INTERNAL_SERVER_ERROR",
				Message: err.Error(),
			})
		}
		results["overrides"] = dynamic
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Settings retrieved",
		Results: results,
	})
}

type updateSettingsRequest struct {
	ReplyHint         *string  `json:"reply_hint"`
	AutoResponse      *bool    `json:"auto_response"`
	MaxRepliesPerUser *int     `json:"max_replies_per_user"`
	Topics            []string `json:"topics"`
}

func (handler *App) UpdateSettings(c *fiber.Ctx) error {
	if handler.Settings == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ResponseData{
			Status:  503,
			Code:    "SERVICE_UNAVAILABLE",
			Message: "Dynamic settings store not initialized",
		})
	}

	var request updateSettingsRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	ctx := c.UserContext()
	if request.ReplyHint != nil {
		utils.PanicIfNeeded(handler.Settings.SetReplyHint(ctx, *request.ReplyHint))
	}
	if request.AutoResponse != nil {
		utils.PanicIfNeeded(handler.Settings.SetAutoResponse(ctx, *request.AutoResponse))
	}
	if request.MaxRepliesPerUser != nil {
		utils.PanicIfNeeded(handler.Settings.SetMaxRepliesPerUser(ctx, *request.MaxRepliesPerUser))
	}
	if request.Topics != nil {
		utils.PanicIfNeeded(handler.Settings.SetTopics(ctx, request.Topics))
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Settings updated",
	})
}
