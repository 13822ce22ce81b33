// Package notify sends the booking confirmation email. It is a read-only
// consumer of saved bookings and never feeds back into pricing or
// persistence.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/cartour/cartour-rentals/pkg/events"
	"github.com/cartour/cartour-rentals/pkg/logger"
	"github.com/cartour/cartour-rentals/pkg/mailer"
)

type Notifier struct {
	mail mailer.Service
}

func New(mail mailer.Service) *Notifier {
	return &Notifier{mail: mail}
}

// Register subscribes the notifier to saved-booking events.
func (n *Notifier) Register(bus events.Subscriber) error {
	return bus.QueueSubscribe(events.BookingSaved, "notify", n.handleBookingSaved)
}

func (n *Notifier) handleBookingSaved(msg *events.Message) {
	var evt events.BookingSavedEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		logger.Error("failed to decode booking saved event", "error", err)
		return
	}
	if evt.CustomerEmail == "" {
		return
	}

	subject := fmt.Sprintf("CarTour booking %s confirmed", evt.BookingID)
	text := fmt.Sprintf(
		"Hi %s,\n\nYour booking is confirmed.\n\nBooking ID: %s\nCar: %s\nPickup: %s\nAmount: ₹%.2f\n\nThank you for choosing CarTour!",
		evt.CustomerName, evt.BookingID, evt.VehicleName,
		evt.PickupDate.Format("02 Jan 2006 15:04"), evt.TotalAmount,
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your booking is confirmed.</p><ul><li>Booking ID: <b>%s</b></li><li>Car: %s</li><li>Pickup: %s</li><li>Amount: ₹%.2f</li></ul><p>Thank you for choosing CarTour!</p>",
		evt.CustomerName, evt.BookingID, evt.VehicleName,
		evt.PickupDate.Format("02 Jan 2006 15:04"), evt.TotalAmount,
	)

	if _, err := n.mail.Send(evt.CustomerEmail, evt.CustomerName, subject, text, html); err != nil {
		logger.Error("failed to send confirmation email", "error", err, "booking_id", evt.BookingID)
		return
	}
	logger.Info("confirmation email sent", "booking_id", evt.BookingID, "to", evt.CustomerEmail)
}
