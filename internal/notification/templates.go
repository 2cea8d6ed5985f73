package notification

import (
	"bytes"
	"fmt"
	"html/template"

	"commonspace/pkg/model"
)

const siteURL = "https://commonspace.com"

const (
	tmplConfirmation = "confirmation"
	tmplStatusUpdate = "status_update"
	tmplReminder     = "reminder"
	tmplFeedback     = "feedback"
	tmplWelcome      = "welcome"
	tmplWeekly       = "weekly_summary"
)

// Every value is escaped by html/template; names and venue fields are user input.
var templates = template.Must(template.New("email").Parse(`
{{define "details"}}<div style="margin: 20px 0; padding: 20px; border: 1px solid #eee; border-radius: 5px;">
<h3>Booking Details</h3>
<p><strong>Venue:</strong> {{.Booking.VenueName}}</p>
{{if .ShowPackage}}<p><strong>Package:</strong> {{.Booking.PackageName}}</p>
{{end}}<p><strong>Date:</strong> {{.Booking.Date}}</p>
<p><strong>Time:</strong> {{.Booking.Time}}</p>
{{if .ShowPackage}}<p><strong>Duration:</strong> {{.Booking.Duration}} hours</p>
<p><strong>Status:</strong> {{.Booking.Status}}</p>
{{end}}{{if .Address}}<p><strong>Address:</strong> {{.Address}}</p>
{{end}}</div>{{end}}

{{define "button"}}<div style="margin: 20px 0; text-align: center;">
<a href="{{.URL}}" style="background-color: #4CAF50; color: white; padding: 10px 15px; text-decoration: none; border-radius: 4px;">{{.Label}}</a>
</div>{{end}}

{{define "confirmation"}}<div>
<h2>Booking Confirmation</h2>
<p>Hi {{.Name}},</p>
<p>Your booking at {{.Booking.VenueName}} has been received and is {{.Booking.Status}}.</p>
{{template "details" .}}
<p>If you need to make any changes to your booking, please log in to your account.</p>
<p>Thank you for choosing CommonSpace!</p>
</div>{{end}}

{{define "status_update"}}<div>
<h2>Booking Status Update</h2>
<p>Hi {{.Name}},</p>
<p>{{.Message}}</p>
{{template "details" .}}
<p>If you have any questions, please contact us.</p>
</div>{{end}}

{{define "reminder"}}<div>
<h2>Booking Reminder</h2>
<p>Hi {{.Name}},</p>
<p>This is a friendly reminder about your booking at {{.Booking.VenueName}} tomorrow.</p>
{{template "details" .}}
<p>We look forward to seeing you!</p>
</div>{{end}}

{{define "feedback"}}<div>
<h2>Share Your Feedback</h2>
<p>Hi {{.Name}},</p>
<p>Thank you for using CommonSpace! We hope you enjoyed your time at {{.Booking.VenueName}}.</p>
<p>We'd love to hear about your experience. Please take a moment to leave your feedback.</p>
{{template "button" .Button}}
<p>Your feedback helps us improve our service and assists other users in finding the perfect space for their needs.</p>
</div>{{end}}

{{define "welcome"}}<div>
<h2>Welcome to CommonSpace!</h2>
<p>Hi {{.Name}},</p>
<p>Thank you for joining CommonSpace! We're excited to have you as part of our community.</p>
<p>With CommonSpace, you can:</p>
<ul>
<li>Discover and book cafes and coworking spaces</li>
<li>Manage your bookings in one place</li>
<li>Receive real-time updates on your bookings</li>
</ul>
{{template "button" .Button}}
<p>If you have any questions, feel free to reach out to our support team.</p>
<p>Happy booking!</p>
</div>{{end}}

{{define "weekly_summary"}}<div>
<h2>Your Weekly CommonSpace Summary</h2>
<p>Hi {{.Name}},</p>
<p>Here's a summary of your upcoming bookings:</p>
{{if .Bookings}}<div>
{{range .Bookings}}<div style="margin-bottom: 15px; padding: 10px; border: 1px solid #eee; border-radius: 5px;">
<p style="margin: 0;"><strong>{{.VenueName}}</strong></p>
<p style="margin: 5px 0;">Package: {{.PackageName}}</p>
<p style="margin: 5px 0;">Date: {{.Date}}</p>
<p style="margin: 5px 0;">Time: {{.Time}}</p>
<p style="margin: 5px 0;">Duration: {{.Duration}} hours</p>
<p style="margin: 5px 0;">Status: {{.Status}}</p>
</div>
{{end}}</div>{{else}}<p>You have no upcoming bookings for this week.</p>{{end}}
<p>Login to your account to manage your bookings or find new spaces.</p>
{{template "button" .Button}}
<p>Thank you for using CommonSpace!</p>
</div>{{end}}
`))

type button struct {
	URL   string
	Label string
}

type emailData struct {
	Name        string
	Booking     *model.Booking
	Bookings    []*model.Booking
	ShowPackage bool
	Address     string
	Message     string
	Button      button
}

func render(name string, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", name, err)
	}
	return buf.String(), nil
}

// statusMessage is the lead sentence of a status update email.
func statusMessage(status model.BookingStatus) string {
	switch status {
	case model.StatusConfirmed:
		return "Your booking has been confirmed."
	case model.StatusCancelled:
		return "Your booking has been cancelled."
	case model.StatusCompleted:
		return "Your booking has been marked as completed."
	case model.StatusInProgress:
		return "Your booking is now in progress."
	case model.StatusNoShow:
		return "You were marked as a no-show for your booking."
	default:
		return fmt.Sprintf("Your booking status has been updated to %s.", status)
	}
}
