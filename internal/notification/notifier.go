package notification

import (
	"context"
	"fmt"

	"commonspace/pkg/logger"
	"commonspace/pkg/metrics"
	"commonspace/pkg/model"
)

const (
	KindConfirmation = "confirmation"
	KindStatusUpdate = "status_update"
	KindReminder     = "reminder"
	KindFeedback     = "feedback"
	KindWelcome      = "welcome"
	KindWeekly       = "weekly_summary"
)

type VenueLookup interface {
	FindByID(ctx context.Context, id string) (*model.Venue, error)
}

// Notifier renders and dispatches every email the platform sends.
// Failures are logged and counted, never returned: a notification must not
// change the outcome of the operation that triggered it.
type Notifier struct {
	sender Sender
	venues VenueLookup
	log    *logger.Logger
}

// NewNotifier builds a Notifier. venues is optional and only used to add the
// street address to reminders.
func NewNotifier(sender Sender, venues VenueLookup, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, venues: venues, log: log.Component("notification")}
}

func (n *Notifier) BookingCreated(ctx context.Context, b *model.Booking) {
	n.dispatch(ctx, KindConfirmation, b.UserEmail,
		fmt.Sprintf("Your CommonSpace Booking at %s is Confirmed", b.VenueName),
		tmplConfirmation, emailData{Name: b.UserName, Booking: b, ShowPackage: true},
		"booking_id", b.ID)
}

func (n *Notifier) BookingStatusChanged(ctx context.Context, b *model.Booking) {
	n.dispatch(ctx, KindStatusUpdate, b.UserEmail,
		fmt.Sprintf("Booking Status Update - %s", b.VenueName),
		tmplStatusUpdate, emailData{Name: b.UserName, Booking: b, Message: statusMessage(b.Status)},
		"booking_id", b.ID, "status", b.Status)
}

func (n *Notifier) Reminder(ctx context.Context, b *model.Booking) {
	data := emailData{Name: b.UserName, Booking: b}
	if n.venues != nil {
		if venue, err := n.venues.FindByID(ctx, b.VenueID); err == nil {
			data.Address = venue.Address
		} else {
			n.log.Warn("Reminder sent without venue address", "booking_id", b.ID, "venue_id", b.VenueID, "error", err)
		}
	}

	n.dispatch(ctx, KindReminder, b.UserEmail,
		fmt.Sprintf("Reminder: Your Booking at %s Tomorrow", b.VenueName),
		tmplReminder, data,
		"booking_id", b.ID)
}

func (n *Notifier) FeedbackRequest(ctx context.Context, b *model.Booking) {
	n.dispatch(ctx, KindFeedback, b.UserEmail,
		fmt.Sprintf("How was your experience at %s?", b.VenueName),
		tmplFeedback, emailData{
			Name:    b.UserName,
			Booking: b,
			Button:  button{URL: siteURL + "/feedback/" + b.ID, Label: "Leave Feedback"},
		},
		"booking_id", b.ID)
}

func (n *Notifier) Welcome(ctx context.Context, u *model.User) {
	n.dispatch(ctx, KindWelcome, u.Email,
		fmt.Sprintf("Welcome to CommonSpace, %s!", u.Name),
		tmplWelcome, emailData{Name: u.Name, Button: button{URL: siteURL + "/explore", Label: "Explore Spaces"}},
		"user_id", u.ID)
}

func (n *Notifier) WeeklySummary(ctx context.Context, u *model.User, bookings []*model.Booking) {
	n.dispatch(ctx, KindWeekly, u.Email,
		"Your Weekly CommonSpace Summary",
		tmplWeekly, emailData{
			Name:     u.Name,
			Bookings: bookings,
			Button:   button{URL: siteURL + "/profile", Label: "View Your Profile"},
		},
		"user_id", u.ID, "bookings", len(bookings))
}

func (n *Notifier) dispatch(ctx context.Context, kind, to, subject, tmpl string, data emailData, attrs ...any) {
	attrs = append(attrs, "kind", kind)

	if to == "" {
		metrics.NotificationsTotal.WithLabelValues(kind, metrics.ResultError).Inc()
		n.log.Warn("Skipping email without recipient", attrs...)
		return
	}

	body, err := render(tmpl, data)
	if err == nil {
		err = n.sender.Send(ctx, to, subject, body)
	}
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(kind, metrics.ResultError).Inc()
		n.log.Error("Failed to send email", append(attrs, "error", err)...)
		return
	}

	metrics.NotificationsTotal.WithLabelValues(kind, metrics.ResultOK).Inc()
	n.log.Debug("Email sent", attrs...)
}
