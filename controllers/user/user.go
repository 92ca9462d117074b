package user

import (
	"queue-booking/middleware"
	"queue-booking/types"
	"queue-booking/utils"

	"github.com/gofiber/fiber/v2"
)

// GetUserInfo returns the authenticated user's profile.
func GetUserInfo(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Invalid user claims",
			Status:  fiber.StatusUnauthorized,
		})
	}

	userModel, err := utils.GetUserByID(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
			Message: "User not found",
			Status:  fiber.StatusNotFound,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "User profile fetched successfully",
		Data:    userModel,
	})
}
