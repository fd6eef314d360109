package message

import (
	"fmt"
	"strings"
	"time"
)

// Appointment is the event payload shape shared by all booking topics.
type Appointment struct {
	AppointmentID string `json:"appointment_id"`
	BarberID      string `json:"barber_id"`
	ServiceID     string `json:"service_id"`
	ServiceName   string `json:"service_name"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
}

type Message struct {
	Subject string
	Body    string
	SMS     string
}

// Render builds the customer-facing message for a booking event. The shop
// name prefixes every subject so messages group in the customer's inbox.
func Render(shopName, eventType string, a Appointment) (Message, error) {
	if strings.TrimSpace(shopName) == "" {
		shopName = "WizCuts"
	}
	when := formatStart(a.StartTime)
	svc := a.ServiceName
	if svc == "" {
		svc = "your appointment"
	}

	var m Message
	switch eventType {
	case "booking.appointment.created.v1":
		m.Subject = fmt.Sprintf("%s: booking request received", shopName)
		m.Body = fmt.Sprintf("Hi %s,\n\nWe received your booking for %s on %s. We'll confirm it shortly.\n", a.CustomerName, svc, when)
		m.SMS = fmt.Sprintf("%s: booking for %s on %s received.", shopName, svc, when)
	case "booking.appointment.confirmed.v1":
		m.Subject = fmt.Sprintf("%s: appointment confirmed", shopName)
		m.Body = fmt.Sprintf("Hi %s,\n\nYour %s on %s is confirmed. See you then!\n", a.CustomerName, svc, when)
		m.SMS = fmt.Sprintf("%s: %s confirmed for %s.", shopName, svc, when)
	case "booking.appointment.rescheduled.v1":
		m.Subject = fmt.Sprintf("%s: appointment rescheduled", shopName)
		m.Body = fmt.Sprintf("Hi %s,\n\nYour %s has been moved to %s.\n", a.CustomerName, svc, when)
		m.SMS = fmt.Sprintf("%s: %s moved to %s.", shopName, svc, when)
	case "booking.appointment.cancelled.v1":
		m.Subject = fmt.Sprintf("%s: appointment cancelled", shopName)
		m.Body = fmt.Sprintf("Hi %s,\n\nYour %s on %s has been cancelled. Book again any time.\n", a.CustomerName, svc, when)
		m.SMS = fmt.Sprintf("%s: %s on %s cancelled.", shopName, svc, when)
	case "booking.appointment.completed.v1":
		m.Subject = fmt.Sprintf("%s: thanks for visiting", shopName)
		m.Body = fmt.Sprintf("Hi %s,\n\nThanks for coming in for %s. We hope to see you again soon.\n", a.CustomerName, svc)
		m.SMS = fmt.Sprintf("%s: thanks for visiting!", shopName)
	case "booking.reminder.due.v1":
		m.Subject = fmt.Sprintf("%s: appointment reminder", shopName)
		m.Body = fmt.Sprintf("Hi %s,\n\nThis is a reminder of your %s on %s.\n", a.CustomerName, svc, when)
		m.SMS = fmt.Sprintf("%s: reminder, %s on %s.", shopName, svc, when)
	default:
		return Message{}, fmt.Errorf("no template for event type %q", eventType)
	}
	return m, nil
}

func formatStart(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.UTC().Format("Mon Jan 2 at 15:04 MST")
}
