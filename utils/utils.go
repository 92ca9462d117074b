package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"queue-booking/database"
	"queue-booking/models/user"
	"queue-booking/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	AccessTokenTTL = 30 * time.Minute
	PublicTokenTTL = 60 * time.Minute
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against its bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SignAccessToken issues a short-lived HS256 access token for a user.
func SignAccessToken(userID uint) (string, error) {
	return signToken(jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(AccessTokenTTL).Unix(),
	}, os.Getenv("ACCESS_KEY"))
}

// SignPublicToken issues the anonymous token handed to web clients before login.
func SignPublicToken() (string, error) {
	return signToken(jwt.MapClaims{
		"type": "public",
		"app":  "web_api",
		"exp":  time.Now().Add(PublicTokenTTL).Unix(),
	}, os.Getenv("PUBLIC_KEY"))
}

func signToken(claims jwt.MapClaims, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("signing key is not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates an HS256 token with the given key.
func VerifyToken(tokenString, key string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(key), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ExtractBearerToken pulls the token out of the Authorization header.
func ExtractBearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header missing")
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return "", fmt.Errorf("invalid token format")
	}
	return tokenParts[1], nil
}

// CreateSanitizedLogEntry copies the request and response data for async
// persistence. Everything is deep-copied because fasthttp reuses its buffers
// after the handler returns.
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	return types.LogEntry{
		Method:       string([]byte(c.Method())),
		URL:          string([]byte(c.OriginalURL())),
		ClientIP:     string([]byte(c.IP())),
		RequestBody:  sanitizeRequestBody(c),
		ResponseBody: string(append([]byte(nil), c.Response().Body()...)),
		StatusCode:   c.Response().StatusCode(),
		CreatedAt:    time.Now(),
	}
}

// sanitizeRequestBody redacts credential fields before the body is queued
// for storage. Non-JSON bodies are copied as-is.
func sanitizeRequestBody(c *fiber.Ctx) string {
	body := c.Body()
	if len(body) == 0 {
		return ""
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(append([]byte(nil), body...))
	}

	for key := range payload {
		if strings.Contains(strings.ToLower(key), "password") {
			payload[key] = "[REDACTED]"
		}
	}

	sanitized, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(sanitized)
}

// GetUserByID retrieves a user by primary key from the database.
func GetUserByID(id uint) (*user.User, error) {
	var userModel user.User
	if err := database.DB.First(&userModel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &userModel, nil
}
