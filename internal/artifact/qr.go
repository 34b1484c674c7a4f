package artifact

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// StatusURL builds the lookup URL a scanned QR resolves to. It is recomputed
// on create and full edit but deliberately not on a status toggle.
func StatusURL(baseURL string, memberID int64) string {
	return fmt.Sprintf("%s/member/%d/status", strings.TrimRight(baseURL, "/"), memberID)
}

// QRPNG encodes the payload as a 256px PNG.
func QRPNG(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}
	return png, nil
}

// QRDataURL is the persisted form of the QR code, matching the legacy
// qr_code column format.
func QRDataURL(payload string) (string, error) {
	png, err := QRPNG(payload)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
