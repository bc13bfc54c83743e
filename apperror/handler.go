package apperror

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Handler is the fiber ErrorHandler. Every handler error ends up here and is
// written once as {"message": ...}.
func Handler(log *logrus.Entry) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		status := http.StatusInternalServerError
		message := "internal server error"

		var appErr *Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			status = appErr.HTTPStatus()
			message = appErr.Message
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
		}

		fields := logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"status": status,
		}
		if status >= http.StatusInternalServerError {
			log.WithFields(fields).WithError(err).Error("request failed")
		} else {
			log.WithFields(fields).WithError(err).Debug("request rejected")
		}

		return c.Status(status).JSON(fiber.Map{"message": message})
	}
}
