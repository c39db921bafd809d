package newebpay

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"time"

	"lightkart/internal/model"
)

// Notification is the decrypted payload of a gateway server-to-server
// callback.
type Notification struct {
	Status  string `json:"Status"`
	Message string `json:"Message"`
	Result  Result `json:"Result"`
}

// Result carries the transaction outcome inside a notification.
type Result struct {
	MerchantID      string `json:"MerchantID"`
	Amt             int64  `json:"Amt"`
	TradeNo         string `json:"TradeNo"`
	MerchantOrderNo string `json:"MerchantOrderNo"`
	PaymentType     string `json:"PaymentType"`
	RespondType     string `json:"RespondType"`
	PayTime         string `json:"PayTime"`
	IP              string `json:"IP"`
	EscrowBank      string `json:"EscrowBank"`
}

// payTimeLayouts covers the gateway's two observed timestamp shapes: the
// documented one and the one missing the date/time separator.
var payTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-0215:04:05",
	time.RFC3339,
}

// PaidAt parses the gateway's payment timestamp. An unparseable value
// falls back to now so a malformed clock never blocks reconciliation.
func (r Result) PaidAt(now time.Time) time.Time {
	for _, layout := range payTimeLayouts {
		if ts, err := time.ParseInLocation(layout, r.PayTime, time.Local); err == nil {
			return ts
		}
	}
	return now
}

// VerifyAndDecrypt recomputes the checksum over the encrypted payload
// and compares it against the gateway-supplied value. On mismatch it
// fails with model.ErrIntegrity without attempting decryption. On match
// it decrypts and parses the notification.
func (c *Client) VerifyAndDecrypt(tradeInfoHex, tradeSha string) (*Notification, error) {
	expected := c.TradeSha(tradeInfoHex)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(tradeSha)) != 1 {
		return nil, model.ErrIntegrity
	}
	return c.DecryptNotification(tradeInfoHex)
}

// DecryptNotification decrypts and parses a gateway payload without a
// checksum check. Only the browser-facing return flow uses this; the
// server-to-server notify path always goes through VerifyAndDecrypt.
func (c *Client) DecryptNotification(tradeInfoHex string) (*Notification, error) {
	plaintext, err := c.decrypt(tradeInfoHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt notification: %w", err)
	}

	var notification Notification
	if err := json.Unmarshal(plaintext, &notification); err != nil {
		return nil, fmt.Errorf("failed to parse notification payload: %w", err)
	}

	return &notification, nil
}
