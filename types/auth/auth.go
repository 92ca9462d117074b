package auth

import (
	"fmt"
)

// RegisterRequest is the payload for local account registration.
type RegisterRequest struct {
	CitizenID   string `json:"citizen_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	LineID      string `json:"line_id"`
	Password    string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	if r.CitizenID == "" {
		return fmt.Errorf("citizen_id is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// LoginRequest is the payload for local credential login.
type LoginRequest struct {
	CitizenID string `json:"citizen_id"`
	Password  string `json:"password"`
}

func (r LoginRequest) Validate() error {
	if r.CitizenID == "" {
		return fmt.Errorf("citizen_id is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// RefreshRequest exchanges a refresh token for a fresh access token.
type RefreshRequest struct {
	Code string `json:"code"`
}

// OnlineLoginRequest is the payload for LINE-based login; the account is
// created on first sight of the LINE id.
type OnlineLoginRequest struct {
	Tel    string `json:"tel"`
	LineID string `json:"line_id"`
}

func (r OnlineLoginRequest) Validate() error {
	if r.LineID == "" {
		return fmt.Errorf("line_id is required")
	}
	return nil
}

// LinkLineRequest attaches a LINE id to an existing authenticated account.
type LinkLineRequest struct {
	LineID string `json:"line_id"`
}

func (r LinkLineRequest) Validate() error {
	if r.LineID == "" {
		return fmt.Errorf("line_id is required")
	}
	return nil
}

// NewPasswordRequest resets a password looked up by phone number.
type NewPasswordRequest struct {
	Tel      string `json:"tel"`
	Password string `json:"password"`
}

func (r NewPasswordRequest) Validate() error {
	if r.Tel == "" {
		return fmt.Errorf("tel is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}
