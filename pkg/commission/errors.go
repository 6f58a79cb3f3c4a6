package commission

import "errors"

// ErrInvalidBooking is returned when a booking fails validation before any
// distribution starts. No side effects have been applied.
var ErrInvalidBooking = errors.New("invalid booking")

// ErrCycleDetected is returned when the referral chain walk revisits an agent.
// A cycle is a data-integrity fault in the agent graph; distribution stops and
// the fault needs out-of-band repair.
var ErrCycleDetected = errors.New("referral chain cycle detected")

// ErrConservation is returned when the applied commissions plus the final
// remaining amount do not sum back to the booking total.
var ErrConservation = errors.New("commission conservation violated")
