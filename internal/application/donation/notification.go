package donation

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/sharehub/backend/internal/domain/donation"
)

// DefaultEmailSubject is the subject of the creation summary email.
const DefaultEmailSubject = "Product Details"

// EmailMessage is a rendered email ready to hand to a mailer.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`

	// RequestID ties the delivery logs back to the originating request.
	RequestID string `json:"request_id,omitempty"`
}

// Notifier accepts email messages for asynchronous delivery.
// Enqueue must not block on the actual send; delivery is best effort and at most once.
type Notifier interface {
	Enqueue(ctx context.Context, msg EmailMessage) error
}

var donationEmailTemplate = template.Must(template.New("donation_email").Parse(`
<h2>Product Details</h2>
<p><strong>Full Name:</strong> {{.FullName}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Address:</strong> {{.Address}}</p>
<p><strong>Category:</strong> {{.Category}}</p>
<p><strong>Product Name:</strong> {{.ProductName}}</p>
<p><strong>Description:</strong> {{.Description}}</p>
<p><strong>Quality:</strong> {{.Quality}}</p>
<p><strong>Quantity:</strong> {{.Quantity}}</p>
{{- if .ImageURL}}
<img src="{{.ImageURL}}" alt="Product Image" style="max-width: 100px;" />
{{- end}}
`))

var donationTextTemplate = texttemplate.Must(texttemplate.New("donation_email_text").Parse(`Product Details

Full Name: {{.FullName}}
Email: {{.Email}}
Phone: {{.Phone}}
Address: {{.Address}}
Category: {{.Category}}
Product Name: {{.ProductName}}
Description: {{.Description}}
Quality: {{.Quality}}
Quantity: {{.Quantity}}
{{- if .ImageURL}}
Image: {{.ImageURL}}
{{- end}}
`))

type donationEmailData struct {
	*donation.Donation
	ImageURL string
}

// ComposeDonationEmail renders the creation summary for d.
// imageURL may be empty, in which case no image tag is emitted.
func ComposeDonationEmail(d *donation.Donation, subject, imageURL string) (EmailMessage, error) {
	if subject == "" {
		subject = DefaultEmailSubject
	}
	data := donationEmailData{Donation: d, ImageURL: imageURL}
	var body bytes.Buffer
	if err := donationEmailTemplate.Execute(&body, data); err != nil {
		return EmailMessage{}, fmt.Errorf("failed to render donation email: %w", err)
	}
	var text strings.Builder
	if err := donationTextTemplate.Execute(&text, data); err != nil {
		return EmailMessage{}, fmt.Errorf("failed to render donation email text: %w", err)
	}
	return EmailMessage{
		To:      d.Email,
		Subject: subject,
		HTML:    body.String(),
		Text:    text.String(),
	}, nil
}
