package booking

import (
	"encoding/json"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
)

// Kafka topic per event type, mirrored by the notification consumer.
const (
	EventTypeCreated     = "booking.appointment.created.v1"
	EventTypeConfirmed   = "booking.appointment.confirmed.v1"
	EventTypeRescheduled = "booking.appointment.rescheduled.v1"
	EventTypeCancelled   = "booking.appointment.cancelled.v1"
	EventTypeCompleted   = "booking.appointment.completed.v1"
	EventTypeReminderDue = "booking.reminder.due.v1"
)

func appointmentEventPayload(a model.Appointment) ([]byte, error) {
	return json.Marshal(map[string]any{
		"appointment_id": a.ID,
		"barber_id":      a.BarberID,
		"service_id":     a.ServiceID,
		"service_name":   a.ServiceName,
		"customer_name":  a.CustomerName,
		"customer_email": a.CustomerEmail,
		"customer_phone": a.CustomerPhone,
		"start_time":     a.StartTime.UTC().Format(time.RFC3339),
		"end_time":       a.EndTime.UTC().Format(time.RFC3339),
		"status":         string(a.Status),
	})
}
