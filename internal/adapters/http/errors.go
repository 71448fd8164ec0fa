package http

import "github.com/gofiber/fiber/v2"

// APIError is the JSON body every failed request carries. Code is a
// stable machine-readable string; Message is for humans.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	body := APIError{Status: status, Code: code, Message: message}
	if rid, ok := c.Locals("requestid").(string); ok {
		body.RequestID = rid
	}
	return c.Status(status).JSON(body)
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return writeError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return writeError(c, fiber.StatusNotFound, "not_found", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return writeError(c, fiber.StatusInternalServerError, "internal_error", msg)
}
