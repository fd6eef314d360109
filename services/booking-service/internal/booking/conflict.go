package booking

import (
	"time"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
)

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching endpoints do not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// blocksSlot reports whether an appointment in this status occupies its
// interval. Cancelled and completed appointments never conflict.
func blocksSlot(s model.Status) bool {
	return s == model.StatusPending || s == model.StatusConfirmed
}

// HasConflict reports whether the candidate interval [start,end) overlaps any
// blocking appointment in appts, skipping the appointment with excludeID (used
// by reschedule to ignore itself). Pure function of its inputs; callers must
// run it inside the same transaction as any subsequent write.
func HasConflict(appts []model.Appointment, start, end time.Time, excludeID string) bool {
	for _, a := range appts {
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		if !blocksSlot(a.Status) {
			continue
		}
		if Overlaps(start, end, a.StartTime, a.EndTime) {
			return true
		}
	}
	return false
}
