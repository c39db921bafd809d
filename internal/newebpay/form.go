package newebpay

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"lightkart/internal/model"
)

// formTemplate renders the auto-submitting form the browser posts to the
// gateway. TradeInfo/TradeSha carry the signed payload; the cleartext
// fields are display-only duplicates the gateway requires.
var formTemplate = template.Must(template.New("newebpay").Parse(`<!DOCTYPE html>
<html>
<body>
<form id="newebpay" method="post" action="{{.GatewayURL}}">
<input type="hidden" name="MerchantID" value="{{.MerchantID}}">
<input type="hidden" name="TradeInfo" value="{{.TradeInfo}}">
<input type="hidden" name="TradeSha" value="{{.TradeSha}}">
<input type="hidden" name="TimeStamp" value="{{.TimeStamp}}">
<input type="hidden" name="Version" value="{{.Version}}">
<input type="hidden" name="MerchantOrderNo" value="{{.MerchantOrderNo}}">
<input type="hidden" name="Amt" value="{{.Amt}}">
<input type="hidden" name="ItemDesc" value="{{.ItemDesc}}">
<input type="hidden" name="Email" value="{{.Email}}">
</form>
<script>document.getElementById("newebpay").submit();</script>
</body>
</html>
`))

type formFields struct {
	GatewayURL      string
	MerchantID      string
	TradeInfo       string
	TradeSha        string
	TimeStamp       int64
	Version         string
	MerchantOrderNo string
	Amt             int64
	ItemDesc        string
	Email           string
}

// ItemDescription summarises an order's content for the gateway's
// cleartext item field.
func ItemDescription(productName string, itemCount int) string {
	if itemCount > 1 {
		return fmt.Sprintf("%s and %d other items", productName, itemCount-1)
	}
	return productName
}

// BuildRequestForm derives a fresh merchant order number from the
// current time, signs the trade payload, and renders the auto-submit
// HTML form. It is a pure function of its inputs and the clock: the
// caller is responsible for persisting the returned merchant order
// number onto the order.
func (c *Client) BuildRequestForm(order *model.Order, productName, payerEmail string, itemCount int) (html string, merchantOrderNo string, err error) {
	timestamp := c.now().Unix()
	merchantOrderNo = strconv.FormatInt(timestamp, 10)

	trade := TradeInfo{
		TimeStamp:       timestamp,
		MerchantOrderNo: merchantOrderNo,
		Amt:             order.Amount,
		ItemDesc:        ItemDescription(productName, itemCount),
	}

	tradeInfo, err := c.EncryptTradeInfo(trade)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt trade info: %w", err)
	}

	var buf strings.Builder
	err = formTemplate.Execute(&buf, formFields{
		GatewayURL:      c.cfg.GatewayURL,
		MerchantID:      c.cfg.MerchantID,
		TradeInfo:       tradeInfo,
		TradeSha:        c.TradeSha(tradeInfo),
		TimeStamp:       timestamp,
		Version:         c.cfg.Version,
		MerchantOrderNo: merchantOrderNo,
		Amt:             order.Amount,
		ItemDesc:        trade.ItemDesc,
		Email:           payerEmail,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render gateway form: %w", err)
	}

	return buf.String(), merchantOrderNo, nil
}
