// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The sqlite3 import below does two jobs: its init() registers the
// "sqlite3" driver with database/sql, and its Error type lets us tell a
// UNIQUE constraint violation apart from any other failure.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/indrajithvu22/tag/internal/config"
	"github.com/indrajithvu22/tag/internal/storage"
	"github.com/indrajithvu22/tag/internal/types"

	"github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB

	// now is swapped in tests.
	now func() time.Time
}

// New opens the SQLite database at cfg.StoragePath, creates the tables if
// they do not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	if dir := filepath.Dir(cfg.StoragePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	// _txlock=immediate makes every BEGIN take the write lock up front;
	// ToggleAttendance relies on it.
	db, err := sql.Open("sqlite3", cfg.StoragePath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// "database is locked" under concurrent requests.
	db.SetMaxOpenConns(1)

	// CREATE TABLE IF NOT EXISTS is idempotent, so this is safe on every
	// startup.
	//
	// Schema:
	//   registrations.reg_number  UNIQUE; duplicates become ErrDuplicate
	//   registrations.rfid_tag    NULL until assigned. SQLite lets many rows
	//                             hold NULL under a UNIQUE column, so only
	//                             assigned tags must be distinct.
	//   attendance                append-only IN/OUT log; the index makes
	//                             "latest row for this person" a seek.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS registrations (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			reg_number TEXT NOT NULL UNIQUE,
			rfid_tag   TEXT UNIQUE,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS attendance (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at TEXT NOT NULL,
			name        TEXT NOT NULL,
			reg_number  TEXT NOT NULL,
			rfid_tag    TEXT NOT NULL,
			status      TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS attendance_reg_number ON attendance (reg_number, id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create tables: %w", err)
	}

	return &SQLite{Db: db, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint
// failure. errors.As unwraps to the driver's sqlite3.Error value, whose
// ExtendedCode tells UNIQUE apart from NOT NULL, CHECK and friends.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row scanner) (types.Registration, error) {
	var (
		reg types.Registration
		tag sql.NullString
	)
	if err := row.Scan(&reg.ID, &reg.Name, &reg.RegNumber, &tag, &reg.CreatedAt); err != nil {
		return types.Registration{}, err
	}
	reg.RFIDTag = tag.String
	return reg, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateRegistration inserts a new row into the registrations table.
//
// Values go through ? placeholders, never string concatenation: the driver
// sends them separately from the SQL, so a name like
// "'); DROP TABLE registrations; --" is stored as plain text.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateRegistration(name, regNumber string) (types.Registration, error) {
	stmt, err := s.Db.Prepare(
		"INSERT INTO registrations (name, reg_number, created_at) VALUES (?, ?, ?)",
	)
	if err != nil {
		return types.Registration{}, fmt.Errorf("CreateRegistration: prepare: %w", err)
	}
	defer stmt.Close()

	createdAt := s.now().Format(types.TimeLayout)
	result, err := stmt.Exec(name, regNumber, createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Registration{}, fmt.Errorf("registration number %s: %w", regNumber, storage.ErrDuplicate)
		}
		return types.Registration{}, fmt.Errorf("CreateRegistration: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return types.Registration{}, fmt.Errorf("CreateRegistration: last insert id: %w", err)
	}

	return types.Registration{
		ID:        lastID,
		Name:      name,
		RegNumber: regNumber,
		CreatedAt: createdAt,
	}, nil
}

func (s *SQLite) GetRegistrations() ([]types.Registration, error) {
	rows, err := s.Db.Query(
		"SELECT id, name, reg_number, rfid_tag, created_at FROM registrations ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("GetRegistrations: query: %w", err)
	}
	defer rows.Close()

	registrations := make([]types.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("GetRegistrations: scan row: %w", err)
		}
		registrations = append(registrations, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetRegistrations: rows iteration: %w", err)
	}

	return registrations, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// getRegistrationBy fetches one registration matched on column.
//
// QueryRow never returns nil; when nothing matches the error surfaces at
// Scan as sql.ErrNoRows, which we translate to storage.ErrNotFound so the
// handler can answer 404 without knowing about database/sql.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) getRegistrationBy(column, value string) (types.Registration, error) {
	// column is always one of the two literals below, never user input.
	row := s.Db.QueryRow(
		"SELECT id, name, reg_number, rfid_tag, created_at FROM registrations WHERE "+column+" = ? LIMIT 1",
		value,
	)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Registration{}, fmt.Errorf("no registration with %s %s: %w", column, value, storage.ErrNotFound)
		}
		return types.Registration{}, fmt.Errorf("getRegistrationBy %s: scan: %w", column, err)
	}
	return reg, nil
}

func (s *SQLite) GetRegistrationByRegNumber(regNumber string) (types.Registration, error) {
	return s.getRegistrationBy("reg_number", regNumber)
}

func (s *SQLite) GetRegistrationByTag(rfidTag string) (types.Registration, error) {
	return s.getRegistrationBy("rfid_tag", rfidTag)
}

// ─────────────────────────────────────────────────────────────────────────────
// AssignTag sets rfid_tag on one registration.
//
// RowsAffected distinguishes "no such registration" (0 rows) from success;
// UPDATE itself does not fail when its WHERE matches nothing.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) AssignTag(regNumber, rfidTag string) (types.Registration, error) {
	result, err := s.Db.Exec(
		"UPDATE registrations SET rfid_tag = ? WHERE reg_number = ?",
		rfidTag, regNumber,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Registration{}, fmt.Errorf("rfid tag %s: %w", rfidTag, storage.ErrDuplicate)
		}
		return types.Registration{}, fmt.Errorf("AssignTag: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return types.Registration{}, fmt.Errorf("AssignTag: rows affected: %w", err)
	}
	if n == 0 {
		return types.Registration{}, fmt.Errorf("no registration with reg_number %s: %w", regNumber, storage.ErrNotFound)
	}

	return s.GetRegistrationByRegNumber(regNumber)
}

func (s *SQLite) DeleteRegistration(regNumber string) error {
	result, err := s.Db.Exec("DELETE FROM registrations WHERE reg_number = ?", regNumber)
	if err != nil {
		return fmt.Errorf("DeleteRegistration: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteRegistration: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no registration with reg_number %s: %w", regNumber, storage.ErrNotFound)
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ToggleAttendance records one scan inside a single transaction.
//
// WHY A TRANSACTION?
// ──────────────────
// The new status depends on the previous one. If we read the last status
// and inserted the new row as two separate statements, two scans arriving
// at the same moment could both read "IN" and both write "OUT".
//
// Inside one transaction the read and the write are a single unit. The
// connection is opened with _txlock=immediate (see New), so the write lock
// is taken at BEGIN and a second scan waits until the first has committed.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) ToggleAttendance(reg types.Registration, rfidTag, at string) (types.AttendanceRecord, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return types.AttendanceRecord{}, fmt.Errorf("ToggleAttendance: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op, so deferring it covers
	// every early return below.
	defer tx.Rollback()

	// ── Step 1: read the person's latest status (none yet is fine) ────
	var last string
	err = tx.QueryRow(
		"SELECT status FROM attendance WHERE reg_number = ? ORDER BY id DESC LIMIT 1",
		reg.RegNumber,
	).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return types.AttendanceRecord{}, fmt.Errorf("ToggleAttendance: last status: %w", err)
	}

	record := types.AttendanceRecord{
		Time:      at,
		Name:      reg.Name,
		RegNumber: reg.RegNumber,
		RFIDTag:   rfidTag,
		Status:    types.NextStatus(last),
	}

	// ── Step 2: append the new row ────────────────────────────────────
	result, err := tx.Exec(
		"INSERT INTO attendance (recorded_at, name, reg_number, rfid_tag, status) VALUES (?, ?, ?, ?, ?)",
		record.Time, record.Name, record.RegNumber, record.RFIDTag, record.Status,
	)
	if err != nil {
		return types.AttendanceRecord{}, fmt.Errorf("ToggleAttendance: insert: %w", err)
	}

	record.ID, err = result.LastInsertId()
	if err != nil {
		return types.AttendanceRecord{}, fmt.Errorf("ToggleAttendance: last insert id: %w", err)
	}

	// ── Step 3: commit; nothing is visible to other scans until here ──
	if err := tx.Commit(); err != nil {
		return types.AttendanceRecord{}, fmt.Errorf("ToggleAttendance: commit: %w", err)
	}

	return record, nil
}

func scanAttendance(row scanner) (types.AttendanceRecord, error) {
	var rec types.AttendanceRecord
	err := row.Scan(&rec.ID, &rec.Time, &rec.Name, &rec.RegNumber, &rec.RFIDTag, &rec.Status)
	return rec, err
}

func (s *SQLite) LastAttendance(regNumber string) (types.AttendanceRecord, error) {
	row := s.Db.QueryRow(
		`SELECT id, recorded_at, name, reg_number, rfid_tag, status
		   FROM attendance WHERE reg_number = ? ORDER BY id DESC LIMIT 1`,
		regNumber,
	)
	rec, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.AttendanceRecord{}, fmt.Errorf("no attendance for %s: %w", regNumber, storage.ErrNotFound)
		}
		return types.AttendanceRecord{}, fmt.Errorf("LastAttendance: scan: %w", err)
	}
	return rec, nil
}

func (s *SQLite) GetAttendance() ([]types.AttendanceRecord, error) {
	rows, err := s.Db.Query(
		"SELECT id, recorded_at, name, reg_number, rfid_tag, status FROM attendance ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("GetAttendance: query: %w", err)
	}
	defer rows.Close()

	records := make([]types.AttendanceRecord, 0)
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("GetAttendance: scan row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetAttendance: rows iteration: %w", err)
	}

	return records, nil
}
