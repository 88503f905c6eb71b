package email

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

// Line is one purchased item as shown in mail.
type Line struct {
	SKU       string
	Title     string
	Variant   string
	Quantity  int
	UnitPrice string
	Provider  string
}

// OrderSummary is the data every order-related template renders.
type OrderSummary struct {
	OrderRef      string
	SessionID     string
	Oracle        bool
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       []string // non-empty address lines, in order
	Items         []Line
	Currency      string
	Total         string
	Tier          string
	Question      string
	AccessCode    string
	Outcome       string
	Notes         []string
}

// CurrencySymbol renders the order currency for display.
func (s OrderSummary) CurrencySymbol() string {
	switch strings.ToLower(s.Currency) {
	case "", "gbp":
		return "£"
	case "usd":
		return "$"
	case "eur":
		return "€"
	}
	return strings.ToUpper(s.Currency) + " "
}

type ContactMessage struct {
	Name      string
	Email     string
	Subject   string
	Message   string
	Timestamp time.Time
}

// Content is a rendered subject with both bodies.
type Content struct {
	Subject string
	HTML    string
	Text    string
}

type template struct {
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func newTemplate(name, subject, html, text string) template {
	return template{
		subject: texttemplate.Must(texttemplate.New(name + ".subject").Parse(subject)),
		html:    htmltemplate.Must(htmltemplate.New(name + ".html").Parse(htmlLayoutStart + html + htmlLayoutEnd)),
		text:    texttemplate.Must(texttemplate.New(name + ".txt").Parse(text)),
	}
}

func (t template) render(data any) (Content, error) {
	var subject, html, text bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return Content{}, err
	}
	if err := t.html.Execute(&html, data); err != nil {
		return Content{}, err
	}
	if err := t.text.Execute(&text, data); err != nil {
		return Content{}, err
	}
	return Content{
		Subject: strings.TrimSpace(subject.String()),
		HTML:    html.String(),
		Text:    strings.TrimSpace(text.String()) + "\n",
	}, nil
}

const htmlLayoutStart = `<!doctype html><html><body style="font-family:Georgia,serif;background:#0b0b12;color:#f3efe6;padding:24px">` +
	`<h1 style="letter-spacing:0.3em;font-weight:normal">LYRĪON</h1>`

const htmlLayoutEnd = `</body></html>`

const htmlItems = `{{if .Items}}<table cellpadding="6">{{range .Items}}` +
	`<tr><td>{{.Title}}{{if .Variant}} ({{.Variant}}){{end}}</td><td>× {{.Quantity}}</td><td>{{$.CurrencySymbol}}{{.UnitPrice}}</td></tr>` +
	`{{end}}</table>{{end}}`

const textItems = `{{range .Items}}- {{.Title}}{{if .Variant}} ({{.Variant}}){{end}} x{{.Quantity}} @ {{$.CurrencySymbol}}{{.UnitPrice}}
{{end}}`

var adminNotification = newTemplate("admin",
	`{{if .Oracle}}New Oracle Reading Request{{else}}New Order{{end}} {{.OrderRef}}{{if eq .Outcome "degraded"}} (needs attention){{end}}`,
	`<p>{{if .Oracle}}New <strong>{{.Tier}}</strong> reading requested.{{else}}New order received.{{end}}</p>`+
		`<p>Customer: {{.CustomerName}} &lt;{{.CustomerEmail}}&gt;{{if .CustomerPhone}}, {{.CustomerPhone}}{{end}}</p>`+
		`{{if .Oracle}}<p>Question: {{.Question}}</p>{{else}}{{if .Address}}<p>Ship to:<br>{{range .Address}}{{.}}<br>{{end}}</p>{{end}}`+htmlItems+`{{end}}`+
		`<p>Total: {{.CurrencySymbol}}{{.Total}}{{if .AccessCode}} (code {{.AccessCode}}){{end}}</p>`+
		`<p>Order ref: {{.OrderRef}}<br>Session: {{.SessionID}}<br>Outcome: {{.Outcome}}</p>`+
		`{{if .Notes}}<ul>{{range .Notes}}<li>{{.}}</li>{{end}}</ul>{{end}}`,
	`{{if .Oracle}}New {{.Tier}} reading requested.{{else}}New order received.{{end}}

Customer: {{.CustomerName}} <{{.CustomerEmail}}>{{if .CustomerPhone}}, {{.CustomerPhone}}{{end}}
{{if .Oracle}}Question: {{.Question}}
{{else}}{{if .Address}}Ship to:
{{range .Address}}  {{.}}
{{end}}{{end}}
`+textItems+`{{end}}
Total: {{.CurrencySymbol}}{{.Total}}{{if .AccessCode}} (code {{.AccessCode}}){{end}}
Order ref: {{.OrderRef}}
Session: {{.SessionID}}
Outcome: {{.Outcome}}
{{range .Notes}}* {{.}}
{{end}}`)

var customerReceipt = newTemplate("receipt",
	`{{if .Oracle}}Your Oracle Reading is On Its Way{{else}}Order Confirmed - LYRĪON{{end}}`,
	`{{if .Oracle}}<p>Thank you for consulting the Oracle, {{.CustomerName}}.</p>`+
		`<p>Your {{.Tier}} reading will be delivered within 48-72 hours.</p>`+
		`{{else}}<p>Thank you for your order, {{.CustomerName}}!</p>`+
		`<p>Your order has been confirmed and is being prepared. You'll receive tracking information within 2-3 business days.</p>`+htmlItems+`{{end}}`+
		`<p>Order ID: {{.OrderRef}}<br>Total: {{.CurrencySymbol}}{{.Total}}</p>`,
	`{{if .Oracle}}Thank you for consulting the Oracle, {{.CustomerName}}.

Your {{.Tier}} reading will be delivered within 48-72 hours.
{{else}}Thank you for your order, {{.CustomerName}}!

Your order has been confirmed and is being prepared.
You'll receive tracking information within 2-3 business days.

`+textItems+`{{end}}
Order ID: {{.OrderRef}}
Total: {{.CurrencySymbol}}{{.Total}}`)

var studioAlert = newTemplate("studio",
	`Manual Order Notification {{.OrderRef}}`,
	`<p>New manual order received. These items are made in the studio:</p>`+htmlItems+
		`<p>Customer: {{.CustomerName}} &lt;{{.CustomerEmail}}&gt;</p>`+
		`{{if .Address}}<p>Ship to:<br>{{range .Address}}{{.}}<br>{{end}}</p>{{end}}`,
	`New manual order received. These items are made in the studio:

`+textItems+`
Customer: {{.CustomerName}} <{{.CustomerEmail}}>
{{if .Address}}Ship to:
{{range .Address}}  {{.}}
{{end}}{{end}}`)

var errorAlert = newTemplate("error",
	`Order Processing Error {{.OrderRef}}`,
	`<p>Order {{.OrderRef}} (session {{.SessionID}}) needs manual follow-up:</p>`+
		`<ul>{{range .Notes}}<li>{{.}}</li>{{end}}</ul><p>Please process manually.</p>`,
	`Order {{.OrderRef}} (session {{.SessionID}}) needs manual follow-up:

{{range .Notes}}* {{.}}
{{end}}
Please process manually.`)

var contactForm = newTemplate("contact",
	`Contact Form: {{.Subject}}`,
	`<p>From: {{.Name}} &lt;{{.Email}}&gt;<br>Subject: {{.Subject}}</p><p style="white-space:pre-wrap">{{.Message}}</p>`+
		`<p>Received {{.Timestamp.Format "2006-01-02 15:04 MST"}}</p>`,
	`From: {{.Name}} ({{.Email}})
Subject: {{.Subject}}

Message:
{{.Message}}

Timestamp: {{.Timestamp.Format "2006-01-02 15:04 MST"}}`)

func RenderAdminNotification(s OrderSummary) (Content, error) { return adminNotification.render(s) }
func RenderCustomerReceipt(s OrderSummary) (Content, error)   { return customerReceipt.render(s) }
func RenderStudioAlert(s OrderSummary) (Content, error)       { return studioAlert.render(s) }
func RenderErrorAlert(s OrderSummary) (Content, error)        { return errorAlert.render(s) }
func RenderContact(m ContactMessage) (Content, error)         { return contactForm.render(m) }
