package qrcode

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	qr "github.com/skip2/go-qrcode"
)

// CheckInLink builds the check-in URL encoded into a booking's QR code. The
// queue engine supplies only the booking reference; rendering lives here.
func CheckInLink(reference string) string {
	base := strings.TrimRight(os.Getenv("FRONTEND_URL"), "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	return fmt.Sprintf("%s/check-in/%s", base, reference)
}

// GenerateDataURL renders the link as a 256px PNG QR code and returns it as
// a base64 data URL for direct embedding in the client.
func GenerateDataURL(link string) (string, error) {
	png, err := qr.Encode(link, qr.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
