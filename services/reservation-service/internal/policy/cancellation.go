package policy

import (
	"fmt"
	"time"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/auth"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/model"
)

// MinCancelNotice is how far ahead of the booking start a customer may still
// cancel or modify. Staff and admins are exempt.
const MinCancelNotice = 24 * time.Hour

// Decision is the outcome of a cancellation-eligibility check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// CanCancel decides whether actorRole may cancel or modify the booking at
// time now. Status gates apply to everyone; the notice window only to
// unprivileged actors. A start time that cannot be parsed never blocks the
// customer.
func CanCancel(b model.Booking, actorRole string, now time.Time) Decision {
	switch b.Status {
	case model.BookingCancelled:
		return deny("booking is already cancelled")
	case model.BookingCompleted:
		return deny("completed bookings cannot be cancelled")
	}

	if auth.Privileged(actorRole) {
		return allow()
	}

	start, ok := b.StartsAt()
	if !ok {
		return allow()
	}
	if start.Sub(now) < MinCancelNotice {
		return deny(fmt.Sprintf("bookings may only be cancelled or changed at least %d hours before the start time", int(MinCancelNotice.Hours())))
	}
	return allow()
}
