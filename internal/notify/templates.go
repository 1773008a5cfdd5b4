package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/chandruydv805026/my-web/internal/entity"
)

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"minutes": func(d time.Duration) int { return int(d.Minutes()) },
	"when":    func(t time.Time) string { return t.Format("02 Jan 2006, 15:04") },
}).Parse(`
{{define "otp"}}<div style="font-family:sans-serif">
<p>Your login code is</p>
<h2 style="letter-spacing:4px">{{.Code}}</h2>
<p>It expires in {{minutes .TTL}} minutes. Do not share it with anyone.</p>
</div>{{end}}

{{define "order_placed"}}<div style="font-family:sans-serif">
<h2>New order {{.OrderID}}</h2>
<p><b>{{.CustomerName}}</b> &middot; {{.Phone}}{{if .CustomerEmail}} &middot; {{.CustomerEmail}}{{end}}</p>
<p>{{.DeliveryAddress}}</p>
<table border="1" cellpadding="6" style="border-collapse:collapse">
<tr><th>Item</th><th>Qty</th><th>Price</th><th>Subtotal</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>&#8377;{{.Price.StringFixed 2}}</td><td>&#8377;{{(.Price.Mul .Quantity).StringFixed 2}}</td></tr>
{{end}}</table>
<p><b>Total: &#8377;{{.TotalAmount.StringFixed 2}}</b> ({{.PaymentMode}})</p>
<p>Placed {{when .PlacedAt}}</p>
</div>{{end}}

{{define "order_cancelled"}}<div style="font-family:sans-serif">
<h2>Order {{.OrderID}} cancelled</h2>
<p><b>{{.CustomerName}}</b> &middot; {{.Phone}}</p>
<p>Amount: &#8377;{{.TotalAmount.StringFixed 2}}</p>
<p>Cancelled {{when .CancelledAt}}</p>
</div>{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// OTPMessage renders the login code email.
func OTPMessage(to, code string, ttl time.Duration) (Message, error) {
	html, err := render("otp", struct {
		Code string
		TTL  time.Duration
	}{code, ttl})
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: "Your login code", HTML: html}, nil
}

// OrderPlacedMessage renders the operator email for a new order.
func OrderPlacedMessage(to string, e entity.OrderPlaced) (Message, error) {
	html, err := render("order_placed", e)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("New order from %s (₹%s)", e.CustomerName, e.TotalAmount.StringFixed(2)),
		HTML:    html,
	}, nil
}

// OrderCancelledMessage renders the operator email for a cancelled order.
func OrderCancelledMessage(to string, e entity.OrderCancelled) (Message, error) {
	html, err := render("order_cancelled", e)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Order cancelled by %s", e.CustomerName),
		HTML:    html,
	}, nil
}
