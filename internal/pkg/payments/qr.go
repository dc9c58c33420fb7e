package payments

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// buildDepositPayload renders the copy-paste string encoded into deposit QR
// codes. The PSP echoes the transaction id back through the webhook.
func buildDepositPayload(txID uint, amountCents int64, currency, method, ref string) string {
	return fmt.Sprintf("%s|deposit|tx=%d|amount=%d|cur=%s|ref=%s", method, txID, amountCents, currency, ref)
}

// buildTransferPayload renders the string encoded into peer-transfer QR
// codes; scanning clients resolve it into a transfer API call.
func buildTransferPayload(toUserID uint, toUsername string, amountCents int64, currency string) string {
	return fmt.Sprintf("transfer|to=%d|user=%s|amount=%d|cur=%s", toUserID, toUsername, amountCents, currency)
}

// qrImageDataURL renders the payload as a PNG data URL suitable for an <img>
// src attribute.
func qrImageDataURL(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
