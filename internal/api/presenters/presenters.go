package presenters

import (
	"github.com/gofiber/fiber/v2"
)

func SuccessResponse(c *fiber.Ctx, data any, code int, message string) error {
	res := fiber.Map{
		"status":  true,
		"message": message,
	}
	if data != nil {
		res["data"] = data
	}
	return c.Status(code).JSON(res)
}

func ErrorResponse(c *fiber.Ctx, code int, message string, err error) error {
	res := fiber.Map{
		"status":  false,
		"message": message,
	}
	if err != nil {
		res["error"] = err.Error()
	}
	return c.Status(code).JSON(res)
}
