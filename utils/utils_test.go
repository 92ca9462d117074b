package utils

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"queue-booking/types"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "s3cret-password" {
		t.Fatal("password stored in plaintext")
	}
	if !CheckPassword(hash, "s3cret-password") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Fatal("wrong password accepted")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Setenv("ACCESS_KEY", "test-access-key")

	token, err := SignAccessToken(42)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	claims, err := VerifyToken(token, "test-access-key")
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if id, _ := claims["user_id"].(float64); uint(id) != 42 {
		t.Fatalf("user_id = %v, want 42", claims["user_id"])
	}
}

func TestVerifyTokenWrongKey(t *testing.T) {
	t.Setenv("ACCESS_KEY", "test-access-key")

	token, err := SignAccessToken(42)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	if _, err := VerifyToken(token, "another-key"); err == nil {
		t.Fatal("token verified with the wrong key")
	}
}

func TestCreateSanitizedLogEntryRedactsPasswords(t *testing.T) {
	var entry types.LogEntry

	app := fiber.New()
	app.Post("/login", func(c *fiber.Ctx) error {
		err := c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
		entry = CreateSanitizedLogEntry(c)
		return err
	})

	body := bytes.NewBufferString(`{"citizen_id":"1100200300401","password":"s3cret-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/login", body)
	req.Header.Set("Content-Type", "application/json")

	if _, err := app.Test(req, -1); err != nil {
		t.Fatalf("request: %v", err)
	}

	if strings.Contains(entry.RequestBody, "s3cret-password") {
		t.Fatalf("plaintext password leaked into log entry: %s", entry.RequestBody)
	}
	if !strings.Contains(entry.RequestBody, "[REDACTED]") {
		t.Fatalf("password field not redacted: %s", entry.RequestBody)
	}
	if !strings.Contains(entry.RequestBody, "1100200300401") {
		t.Fatalf("non-credential field dropped: %s", entry.RequestBody)
	}
	if entry.Method != http.MethodPost || entry.URL != "/login" {
		t.Fatalf("entry = %s %s, want POST /login", entry.Method, entry.URL)
	}
	if entry.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", entry.StatusCode)
	}
}

func TestSignTokenWithoutKey(t *testing.T) {
	t.Setenv("ACCESS_KEY", "")

	if _, err := SignAccessToken(42); err == nil {
		t.Fatal("signing must fail without a configured key")
	}
}
