// Package memory is an in-memory storage.Storage for handler tests.
package memory

import (
	"fmt"
	"sync"

	"github.com/indrajithvu22/tag/internal/storage"
	"github.com/indrajithvu22/tag/internal/types"
)

// Memory keeps registrations and attendance in slices guarded by a mutex.
// When Err is set every method returns it, which lets tests drive the
// 500 paths of the handlers.
type Memory struct {
	mu            sync.Mutex
	registrations []types.Registration
	attendance    []types.AttendanceRecord
	nextID        int64

	Err error
}

func New() *Memory {
	return &Memory{}
}

var _ storage.Storage = (*Memory)(nil)

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) find(match func(types.Registration) bool) int {
	for i, r := range m.registrations {
		if match(r) {
			return i
		}
	}
	return -1
}

func (m *Memory) CreateRegistration(name, regNumber string) (types.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return types.Registration{}, m.Err
	}

	if m.find(func(r types.Registration) bool { return r.RegNumber == regNumber }) >= 0 {
		return types.Registration{}, fmt.Errorf("registration number %s: %w", regNumber, storage.ErrDuplicate)
	}

	reg := types.Registration{ID: m.id(), Name: name, RegNumber: regNumber}
	m.registrations = append(m.registrations, reg)
	return reg, nil
}

func (m *Memory) GetRegistrations() ([]types.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	out := make([]types.Registration, len(m.registrations))
	copy(out, m.registrations)
	return out, nil
}

func (m *Memory) GetRegistrationByRegNumber(regNumber string) (types.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return types.Registration{}, m.Err
	}

	i := m.find(func(r types.Registration) bool { return r.RegNumber == regNumber })
	if i < 0 {
		return types.Registration{}, fmt.Errorf("no registration with reg_number %s: %w", regNumber, storage.ErrNotFound)
	}
	return m.registrations[i], nil
}

func (m *Memory) GetRegistrationByTag(rfidTag string) (types.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return types.Registration{}, m.Err
	}

	i := m.find(func(r types.Registration) bool { return rfidTag != "" && r.RFIDTag == rfidTag })
	if i < 0 {
		return types.Registration{}, fmt.Errorf("no registration with rfid_tag %s: %w", rfidTag, storage.ErrNotFound)
	}
	return m.registrations[i], nil
}

func (m *Memory) AssignTag(regNumber, rfidTag string) (types.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return types.Registration{}, m.Err
	}

	i := m.find(func(r types.Registration) bool { return r.RegNumber == regNumber })
	if i < 0 {
		return types.Registration{}, fmt.Errorf("no registration with reg_number %s: %w", regNumber, storage.ErrNotFound)
	}
	if j := m.find(func(r types.Registration) bool { return r.RFIDTag == rfidTag }); j >= 0 && j != i {
		return types.Registration{}, fmt.Errorf("rfid tag %s: %w", rfidTag, storage.ErrDuplicate)
	}

	m.registrations[i].RFIDTag = rfidTag
	return m.registrations[i], nil
}

func (m *Memory) DeleteRegistration(regNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	i := m.find(func(r types.Registration) bool { return r.RegNumber == regNumber })
	if i < 0 {
		return fmt.Errorf("no registration with reg_number %s: %w", regNumber, storage.ErrNotFound)
	}
	m.registrations = append(m.registrations[:i], m.registrations[i+1:]...)
	return nil
}

func (m *Memory) ToggleAttendance(reg types.Registration, rfidTag, at string) (types.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return types.AttendanceRecord{}, m.Err
	}

	last := ""
	for i := len(m.attendance) - 1; i >= 0; i-- {
		if m.attendance[i].RegNumber == reg.RegNumber {
			last = m.attendance[i].Status
			break
		}
	}

	record := types.AttendanceRecord{
		ID:        m.id(),
		Time:      at,
		Name:      reg.Name,
		RegNumber: reg.RegNumber,
		RFIDTag:   rfidTag,
		Status:    types.NextStatus(last),
	}
	m.attendance = append(m.attendance, record)
	return record, nil
}

func (m *Memory) LastAttendance(regNumber string) (types.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return types.AttendanceRecord{}, m.Err
	}

	for i := len(m.attendance) - 1; i >= 0; i-- {
		if m.attendance[i].RegNumber == regNumber {
			return m.attendance[i], nil
		}
	}
	return types.AttendanceRecord{}, fmt.Errorf("no attendance for %s: %w", regNumber, storage.ErrNotFound)
}

func (m *Memory) GetAttendance() ([]types.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	out := make([]types.AttendanceRecord, len(m.attendance))
	copy(out, m.attendance)
	return out, nil
}
