package rest

import (
	"time"

	"github.com/AzielCF/az-postr/agent/application"
	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/AzielCF/az-postr/pkg/utils"
	"github.com/AzielCF/az-postr/validations"
	"github.com/gofiber/fiber/v2"
)

type Reply struct {
	Responder *application.Responder
}

func InitRestReply(app fiber.Router, responder *application.Responder) Reply {
	handler := Reply{Responder: responder}

	app.Post("/replies", handler.Inject)

	return handler
}

// Inject runs an event through the reply pipeline synchronously. Dedup and
// the per-sender cap apply exactly as for polled events.
func (h *Reply) Inject(c *fiber.Ctx) error {
	var request InjectEventRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	utils.PanicIfNeeded(validations.ValidateInjectEvent(c.UserContext(), validations.InjectEventInput{
		EventID:  request.EventID,
		Kind:     request.Kind,
		SenderID: request.SenderID,
		Text:     request.Text,
	}))

	kind := common.EventKindMention
	if request.Kind == "dm" {
		kind = common.EventKindDM
	}

	err = h.Responder.Handle(c.UserContext(), common.InboundEvent{
		EventID:    request.EventID,
		Kind:       kind,
		SenderID:   request.SenderID,
		SenderName: request.SenderName,
		Text:       request.Text,
		ReceivedAt: time.Now().UTC(),
	})
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Event processed",
	})
}
