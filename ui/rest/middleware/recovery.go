package middleware

import (
	"errors"
	"fmt"

	"github.com/AzielCF/az-postr/agent/domain/common"
	pkgError "github.com/AzielCF/az-postr/pkg/error"
	"github.com/AzielCF/az-postr/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				var res utils.ResponseData
				res.Status = 500
				res.Code = "INTERNAL_SERVER_ERROR"
				res.Message = fmt.Sprintf("%v", err)

				// Log the panic using logrus
				logrus.Errorf("Panic recovered in middleware: %v", err)

				if genericErr, ok := err.(pkgError.GenericError); ok {
					res.Status = genericErr.StatusCode()
					res.Code = genericErr.ErrCode()
					res.Message = genericErr.Error()
				} else if plainErr, ok := err.(error); ok && errors.Is(plainErr, common.ErrPostNotFound) {
					res.Status = 404
					res.Code = "NOT_FOUND_ERROR"
					res.Message = plainErr.Error()
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}
