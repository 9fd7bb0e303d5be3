// Package storage defines the Storage interface that any database backend
// must satisfy. Handlers depend only on this interface, so tests can pass
// an in-memory fake instead of a real database.
package storage

import (
	"errors"

	"github.com/indrajithvu22/tag/internal/types"
)

var (
	// ErrDuplicate is returned when a unique value (registration number or
	// RFID tag) is already taken.
	ErrDuplicate = errors.New("already exists")

	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
)

// Storage is the database contract.
type Storage interface {
	// CreateRegistration inserts a new registration and returns it with
	// its generated ID. Returns ErrDuplicate if regNumber is taken.
	CreateRegistration(name, regNumber string) (types.Registration, error)

	// GetRegistrations returns every registration, oldest first.
	// Returns an empty slice (not nil) if there are none.
	GetRegistrations() ([]types.Registration, error)

	GetRegistrationByRegNumber(regNumber string) (types.Registration, error)
	GetRegistrationByTag(rfidTag string) (types.Registration, error)

	// AssignTag links an RFID tag to a registration and returns the
	// updated record. Returns ErrDuplicate if the tag belongs to another
	// registration.
	AssignTag(regNumber, rfidTag string) (types.Registration, error)

	DeleteRegistration(regNumber string) error

	// ToggleAttendance records one scan for reg at time at. The new status
	// is types.NextStatus of the person's latest record; reading it and
	// appending the new row happen atomically, so two scans arriving
	// together can never record the same status twice.
	ToggleAttendance(reg types.Registration, rfidTag, at string) (types.AttendanceRecord, error)

	// LastAttendance returns the most recent record for regNumber, or
	// ErrNotFound if the person was never scanned.
	LastAttendance(regNumber string) (types.AttendanceRecord, error)

	// GetAttendance returns the full attendance log, oldest first.
	GetAttendance() ([]types.AttendanceRecord, error)
}
