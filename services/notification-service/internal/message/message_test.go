package message

import (
	"strings"
	"testing"
)

func TestRender_KnownEventTypes(t *testing.T) {
	appt := Appointment{
		AppointmentID: "a1",
		ServiceName:   "Classic Cut",
		CustomerName:  "Avery",
		CustomerEmail: "avery@example.com",
		StartTime:     "2026-03-04T10:00:00Z",
	}

	types := []string{
		"booking.appointment.created.v1",
		"booking.appointment.confirmed.v1",
		"booking.appointment.rescheduled.v1",
		"booking.appointment.cancelled.v1",
		"booking.appointment.completed.v1",
		"booking.reminder.due.v1",
	}
	for _, et := range types {
		m, err := Render("WizCuts", et, appt)
		if err != nil {
			t.Fatalf("render %s failed: %v", et, err)
		}
		if m.Subject == "" || m.Body == "" || m.SMS == "" {
			t.Fatalf("render %s produced empty message: %+v", et, m)
		}
		if !strings.HasPrefix(m.Subject, "WizCuts:") {
			t.Fatalf("subject missing shop prefix: %q", m.Subject)
		}
	}
}

func TestRender_ConfirmedIncludesStartTime(t *testing.T) {
	appt := Appointment{
		CustomerName: "Avery",
		ServiceName:  "Classic Cut",
		StartTime:    "2026-03-04T10:00:00Z",
	}
	m, err := Render("WizCuts", "booking.appointment.confirmed.v1", appt)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(m.Body, "Mar 4") {
		t.Fatalf("body missing formatted start time: %q", m.Body)
	}
}

func TestRender_UnknownEventType(t *testing.T) {
	if _, err := Render("WizCuts", "booking.unknown.v1", Appointment{}); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestRender_UnparseableTimeFallsBack(t *testing.T) {
	m, err := Render("WizCuts", "booking.reminder.due.v1", Appointment{
		CustomerName: "Avery",
		ServiceName:  "Classic Cut",
		StartTime:    "soon",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(m.Body, "soon") {
		t.Fatalf("expected raw time string in body, got %q", m.Body)
	}
}
