package rest

import (
	"errors"
	"time"

	"github.com/AzielCF/az-postr/agent/application"
	"github.com/AzielCF/az-postr/agent/domain"
	"github.com/AzielCF/az-postr/agent/domain/common"
	pkgError "github.com/AzielCF/az-postr/pkg/error"
	"github.com/AzielCF/az-postr/pkg/utils"
	"github.com/AzielCF/az-postr/validations"
	"github.com/gofiber/fiber/v2"
)

type Post struct {
	Service *application.PostService
}

func InitRestPost(app fiber.Router, service *application.PostService) Post {
	handler := Post{Service: service}

	app.Get("/posts", handler.List)
	app.Post("/posts", handler.Create)
	app.Get("/posts/:id", handler.Get)
	app.Delete("/posts/:id", handler.Cancel)
	app.Post("/threads", handler.CreateThread)

	return handler
}

func (h *Post) List(c *fiber.Ctx) error {
	filter := domain.PostFilter{
		Status:   common.PostStatus(c.Query("status")),
		Kind:     common.PostKind(c.Query("kind")),
		ThreadID: c.Query("thread_id"),
		Date:     c.Query("date"),
		Limit:    c.QueryInt("limit"),
	}

	posts, err := h.Service.Queue(c.UserContext(), filter)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post queue retrieved",
		Results: posts,
	})
}

func (h *Post) Create(c *fiber.Ctx) error {
	var request CreatePostRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	utils.PanicIfNeeded(validations.ValidateCreatePost(c.UserContext(), validations.CreatePostInput{
		Text:     request.Text,
		Topic:    request.Topic,
		TargetAt: request.TargetAt,
	}))

	var targetAt time.Time
	if request.TargetAt != "" {
		targetAt, _ = time.Parse(time.RFC3339, request.TargetAt)
	}

	post, err := h.Service.CreateManualPost(c.UserContext(), request.Text, request.Topic, targetAt)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  201,
		Code:    "SUCCESS",
		Message: "Post scheduled",
		Results: post,
	})
}

func (h *Post) Get(c *fiber.Ctx) error {
	post, err := h.Service.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, common.ErrPostNotFound) {
		panic(pkgError.NotFoundError(err.Error()))
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post retrieved",
		Results: post,
	})
}

func (h *Post) Cancel(c *fiber.Ctx) error {
	err := h.Service.CancelPost(c.UserContext(), c.Params("id"))
	if errors.Is(err, common.ErrPostNotFound) {
		panic(pkgError.NotFoundError(err.Error()))
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post cancelled",
	})
}

func (h *Post) CreateThread(c *fiber.Ctx) error {
	var request CreateThreadRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	utils.PanicIfNeeded(validations.ValidateCreateThread(c.UserContext(), validations.CreateThreadInput{
		Topic:   request.Topic,
		Length:  request.Length,
		StartAt: request.StartAt,
	}))

	var startAt time.Time
	if request.StartAt != "" {
		startAt, _ = time.Parse(time.RFC3339, request.StartAt)
	}

	posts, err := h.Service.CreateThread(c.UserContext(), request.Topic, request.Length, startAt)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  201,
		Code:    "SUCCESS",
		Message: "Thread scheduled",
		Results: posts,
	})
}
