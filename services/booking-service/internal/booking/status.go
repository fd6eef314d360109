package booking

import (
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
)

// Event is a lifecycle action applied to an appointment.
type Event string

const (
	EventConfirm    Event = "confirm"
	EventReschedule Event = "reschedule"
	EventCancel     Event = "cancel"
	EventComplete   Event = "complete"
)

// transitions maps (current status, event) to the resulting status.
// Reschedule keeps the current status; it appears here so the guard logic
// stays in one table.
var transitions = map[model.Status]map[Event]model.Status{
	model.StatusPending: {
		EventConfirm:    model.StatusConfirmed,
		EventReschedule: model.StatusPending,
		EventCancel:     model.StatusCancelled,
	},
	model.StatusConfirmed: {
		EventReschedule: model.StatusConfirmed,
		EventCancel:     model.StatusCancelled,
		EventComplete:   model.StatusCompleted,
	},
}

// Next returns the status that applying ev to from yields. Attempts on a
// terminal status fail with a terminal-state error; any other undefined pair
// fails with an invalid-transition error.
func Next(from model.Status, ev Event) (model.Status, error) {
	if from.IsTerminal() {
		return "", TerminalStatef("appointment is %s; no further transitions permitted", from)
	}
	to, ok := transitions[from][ev]
	if !ok {
		return "", InvalidTransitionf("cannot %s a %s appointment", ev, from)
	}
	return to, nil
}
