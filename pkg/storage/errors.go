package storage

import "errors"

// ErrAgentNotFound is returned when an agent ID does not resolve in the directory.
var ErrAgentNotFound = errors.New("agent not found")

// ErrAgentExists is returned when creating an agent whose ID is already taken.
var ErrAgentExists = errors.New("agent already exists")

// ErrLedgerUnavailable is returned when a credit keeps losing the optimistic-lock
// race after the bounded number of internal retries.
var ErrLedgerUnavailable = errors.New("ledger unavailable")

// ErrDistributionNotFound is returned when no distribution record exists for a booking.
var ErrDistributionNotFound = errors.New("distribution not found")

// ErrBookingNotFound is returned when no stored booking exists for an ID.
var ErrBookingNotFound = errors.New("booking not found")
