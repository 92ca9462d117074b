package middleware

import (
	"os"

	"queue-booking/types"
	"queue-booking/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RequireAuth validates the Bearer access token and stores its claims in
// c.Locals("user") for downstream handlers.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := utils.ExtractBearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Message: "Authorization token required",
				Status:  fiber.StatusUnauthorized,
			})
		}

		claims, err := utils.VerifyToken(token, os.Getenv("ACCESS_KEY"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Message: "Token invalid or expired",
				Status:  fiber.StatusUnauthorized,
			})
		}

		c.Locals("user", claims)
		return c.Next()
	}
}

// RequireStaff validates the access token and additionally requires the
// authenticated user to be flagged as staff. Queue advancement and reset
// routes sit behind this.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := utils.ExtractBearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Message: "Authorization token required",
				Status:  fiber.StatusUnauthorized,
			})
		}

		claims, err := utils.VerifyToken(token, os.Getenv("ACCESS_KEY"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Message: "Token invalid or expired",
				Status:  fiber.StatusUnauthorized,
			})
		}

		userID, ok := claimUserID(claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Message: "User id not found in token",
				Status:  fiber.StatusUnauthorized,
			})
		}

		userModel, err := utils.GetUserByID(userID)
		if err != nil || !userModel.IsStaff {
			return c.Status(fiber.StatusForbidden).JSON(types.ErrorResponse{
				Message: "Insufficient permissions",
				Status:  fiber.StatusForbidden,
			})
		}

		c.Locals("user", claims)
		return c.Next()
	}
}

// UserIDFromContext extracts the authenticated user's id from the claims
// stored by RequireAuth.
func UserIDFromContext(c *fiber.Ctx) (uint, bool) {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	return claimUserID(claims)
}

func claimUserID(claims jwt.MapClaims) (uint, bool) {
	// JSON numbers decode as float64
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
