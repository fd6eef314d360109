package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/booking"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeBookingError maps orchestrator error kinds onto HTTP statuses. Terminal
// state and invalid transition both land on 409: the resource exists but the
// requested change is not permitted from its current state.
func writeBookingError(w http.ResponseWriter, err error) {
	kind := booking.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case booking.KindValidation:
		status = http.StatusBadRequest
	case booking.KindNotFound:
		status = http.StatusNotFound
	case booking.KindConflict, booking.KindTerminalState, booking.KindInvalidTransition:
		status = http.StatusConflict
	case booking.KindStoreUnavailable:
		status = http.StatusServiceUnavailable
	}

	msg := "internal error"
	if kind != booking.KindUnknown && kind != booking.KindStoreUnavailable {
		msg = err.Error()
	} else if kind == booking.KindStoreUnavailable {
		msg = "service temporarily unavailable"
	}
	writeJSON(w, status, map[string]string{"error": msg, "code": kind.String()})
}
