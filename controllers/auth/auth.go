package auth

import (
	"errors"
	"os"

	httpServices "queue-booking/httpServices/line"
	"queue-booking/logger"
	"queue-booking/middleware"
	userModel "queue-booking/models/user"
	"queue-booking/types"
	authTypes "queue-booking/types/auth"
	"queue-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct {
	db         *gorm.DB
	lineClient *httpServices.LineClient
	asyncLog   *logger.AsyncLogger
}

func NewAuthController(lineClient *httpServices.LineClient, db *gorm.DB, asyncLogger *logger.AsyncLogger) *AuthController {
	return &AuthController{db: db, lineClient: lineClient, asyncLog: asyncLogger}
}

// GeneratePublicToken issues the anonymous token web clients present before login.
func (h *AuthController) GeneratePublicToken(c *fiber.Ctx) error {
	token, err := utils.SignPublicToken()
	if err != nil {
		logger.Error("Failed to generate public token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Failed to generate token",
			Status:  fiber.StatusInternalServerError,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Public token created",
		Token:   token,
	})
}

// Register creates a local account with a bcrypt-hashed password.
func (h *AuthController) Register(c *fiber.Ctx) error {
	var req authTypes.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	}

	var existing userModel.User
	err := h.db.Where("citizen_id = ?", req.CitizenID).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Citizen id already registered",
			Status:  fiber.StatusBadRequest,
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Database error while checking existing user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Registration failed",
			Status:  fiber.StatusInternalServerError,
		})
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Registration failed",
			Status:  fiber.StatusInternalServerError,
		})
	}

	newUser := userModel.User{
		CitizenID:   req.CitizenID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Password:    passwordHash,
	}
	if req.LineID != "" {
		newUser.LineID = &req.LineID
	}

	if err := h.db.Create(&newUser).Error; err != nil {
		logger.Error("Failed to create user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Registration failed",
			Status:  fiber.StatusInternalServerError,
		})
	}

	h.asyncLog.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Registration successful",
		Data:    fiber.Map{"user_id": newUser.ID},
	})
}

// Login verifies local credentials and issues a short-lived access token.
func (h *AuthController) Login(c *fiber.Ctx) error {
	var req authTypes.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	}

	var existing userModel.User
	if err := h.db.Where("citizen_id = ?", req.CitizenID).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Message: "User not found",
				Status:  fiber.StatusUnauthorized,
			})
		}
		logger.Error("Database error during login", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Login failed",
			Status:  fiber.StatusInternalServerError,
		})
	}

	if !utils.CheckPassword(existing.Password, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Incorrect password",
			Status:  fiber.StatusUnauthorized,
		})
	}

	accessToken, err := utils.SignAccessToken(existing.ID)
	if err != nil {
		logger.Error("Failed to sign access token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Login failed",
			Status:  fiber.StatusInternalServerError,
		})
	}

	h.asyncLog.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Login successful",
		Token:   accessToken,
		Data:    fiber.Map{"user_id": existing.ID},
	})
}

// OAuth exchanges a refresh token for a fresh access token.
func (h *AuthController) OAuth(c *fiber.Ctx) error {
	var req authTypes.RefreshRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Refresh code is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	claims, err := utils.VerifyToken(req.Code, os.Getenv("REFRESH_KEY"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Invalid refresh token",
			Status:  fiber.StatusUnauthorized,
		})
	}

	id, ok := claims["user_id"].(float64)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Invalid refresh token",
			Status:  fiber.StatusUnauthorized,
		})
	}

	existing, err := utils.GetUserByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
			Message: "User not found",
			Status:  fiber.StatusNotFound,
		})
	}

	accessToken, err := utils.SignAccessToken(existing.ID)
	if err != nil {
		logger.Error("Failed to sign access token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Token exchange failed",
			Status:  fiber.StatusInternalServerError,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Access granted",
		Token:   accessToken,
	})
}

// OnlineLogin signs a user in by LINE id, creating the account on first
// sight. Used after the client completed LINE authentication on its own.
func (h *AuthController) OnlineLogin(c *fiber.Ctx) error {
	var req authTypes.OnlineLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	}

	existing, err := h.findOrCreateLineUser(req.LineID, req.Tel, "")
	if err != nil {
		logger.Error("Online login failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Online login failed",
			Status:  fiber.StatusInternalServerError,
		})
	}

	accessToken, err := utils.SignAccessToken(existing.ID)
	if err != nil {
		logger.Error("Failed to sign access token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Online login failed",
			Status:  fiber.StatusInternalServerError,
		})
	}

	h.asyncLog.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Logged in via LINE",
		Token:   accessToken,
	})
}

// LineLogin exchanges a LINE authorization code server-side, resolves the
// LINE profile, and signs the user in.
func (h *AuthController) LineLogin(c *fiber.Ctx) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Authorization code is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	tokenResp, err := h.lineClient.ExchangeCode(req.Code)
	if err != nil {
		logger.Error("LINE token exchange failed", err)
		return c.Status(fiber.StatusBadGateway).JSON(types.ErrorResponse{
			Message: "LINE login failed",
			Status:  fiber.StatusBadGateway,
		})
	}

	profile, err := h.lineClient.GetProfile(tokenResp.AccessToken)
	if err != nil {
		logger.Error("LINE profile lookup failed", err)
		return c.Status(fiber.StatusBadGateway).JSON(types.ErrorResponse{
			Message: "LINE login failed",
			Status:  fiber.StatusBadGateway,
		})
	}

	existing, err := h.findOrCreateLineUser(profile.UserID, "", profile.DisplayName)
	if err != nil {
		logger.Error("LINE login failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "LINE login failed",
			Status:  fiber.StatusInternalServerError,
		})
	}

	accessToken, err := utils.SignAccessToken(existing.ID)
	if err != nil {
		logger.Error("Failed to sign access token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "LINE login failed",
			Status:  fiber.StatusInternalServerError,
		})
	}

	h.asyncLog.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Logged in via LINE",
		Token:   accessToken,
	})
}

// LinkLineAccount attaches a LINE id to the authenticated user's account so
// later LINE logins resolve to it. A LINE id already held by another account
// is rejected.
func (h *AuthController) LinkLineAccount(c *fiber.Ctx) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "User id not found in token",
			Status:  fiber.StatusUnauthorized,
		})
	}

	var req authTypes.LinkLineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	}

	var other userModel.User
	err := h.db.Where("line_id = ? AND id <> ?", req.LineID, userID).First(&other).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(types.ErrorResponse{
			Message: "LINE account already linked to another user",
			Status:  fiber.StatusConflict,
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Database error while linking LINE account", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Failed to link LINE account",
			Status:  fiber.StatusInternalServerError,
		})
	}

	if err := h.db.Model(&userModel.User{}).Where("id = ?", userID).
		Update("line_id", req.LineID).Error; err != nil {
		logger.Error("Failed to link LINE account", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Failed to link LINE account",
			Status:  fiber.StatusInternalServerError,
		})
	}

	h.asyncLog.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "LINE account linked successfully",
	})
}

// NewPassword resets the password for the account matching a phone number.
func (h *AuthController) NewPassword(c *fiber.Ctx) error {
	var req authTypes.NewPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	}

	var existing userModel.User
	if err := h.db.Where("phone_number = ?", req.Tel).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
				Message: "User not found",
				Status:  fiber.StatusNotFound,
			})
		}
		logger.Error("Database error during password reset", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Failed to update password",
			Status:  fiber.StatusInternalServerError,
		})
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Failed to update password",
			Status:  fiber.StatusInternalServerError,
		})
	}

	if err := h.db.Model(&existing).Update("password", passwordHash).Error; err != nil {
		logger.Error("Failed to update password", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Failed to update password",
			Status:  fiber.StatusInternalServerError,
		})
	}

	h.asyncLog.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Password updated successfully",
	})
}

// VerifyToken validates a Bearer access token and returns its user.
func (h *AuthController) VerifyToken(c *fiber.Ctx) error {
	token, err := utils.ExtractBearerToken(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Token not found",
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

	id, ok := claims["user_id"].(float64)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Token invalid or expired",
			Status:  fiber.StatusUnauthorized,
		})
	}

	existing, err := utils.GetUserByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
			Message: "User not found",
			Status:  fiber.StatusNotFound,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Token is valid",
		Data:    existing,
	})
}

// findOrCreateLineUser resolves a user by LINE id, creating a minimal
// account when none exists yet.
func (h *AuthController) findOrCreateLineUser(lineID, tel, displayName string) (*userModel.User, error) {
	var existing userModel.User
	err := h.db.Where("line_id = ?", lineID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	newUser := userModel.User{
		FirstName:   displayName,
		PhoneNumber: tel,
		LineID:      &lineID,
	}
	if err := h.db.Create(&newUser).Error; err != nil {
		return nil, err
	}
	return &newUser, nil
}
