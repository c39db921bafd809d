package mailer

import (
	"html/template"
	"strings"
)

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body>
<h2>Thanks for your order, {{.CustomerName}}</h2>
<p>Order number: <strong>{{.OrderNumber}}</strong></p>
<p>Order date: {{.OrderDate.Format "2006-01-02 15:04"}}</p>
<table>
<tr><th>Item</th><th>Qty</th><th>Price</th></tr>
{{- range .Products}}
<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td></tr>
{{- end}}
</table>
<p>Subtotal: {{.Subtotal}}</p>
{{- if gt .Discount 0}}
<p>Discount: -{{.Discount}}</p>
{{- end}}
<p>Shipping: {{.ShippingFee}}</p>
<p><strong>Total: {{.Total}}</strong></p>
<p>Payment method: {{.PaymentMethod}}</p>
</body>
</html>
`))

func renderConfirmation(confirmation *OrderConfirmation) (string, error) {
	var buf strings.Builder
	if err := confirmationTemplate.Execute(&buf, confirmation); err != nil {
		return "", err
	}
	return buf.String(), nil
}
