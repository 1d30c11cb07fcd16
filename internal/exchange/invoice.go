package exchange

import (
	"errors"

	"github.com/skip2/go-qrcode"
)

// InvoiceQRSize is the default edge of the rendered code in pixels
const InvoiceQRSize = 256

// RenderInvoiceQR encodes an invoice token as a PNG QR code for scanning at the booth
func RenderInvoiceQR(token string, size int) ([]byte, error) {
	if token == "" {
		return nil, errors.New("invoice token is empty")
	}
	if size <= 0 {
		size = InvoiceQRSize
	}
	return qrcode.Encode(token, qrcode.Medium, size)
}
