// Package attendance handles scans from RFID tag readers. Each scan of a
// registered tag toggles its owner between IN and OUT.
package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/indrajithvu22/tag/internal/storage"
	"github.com/indrajithvu22/tag/internal/types"
	"github.com/indrajithvu22/tag/internal/utils/response"
)

const (
	MsgNoTag         = "No RFID Tag ID provided."
	MsgUnregistered  = "Unregistered tag."
	MsgInternalError = "Internal server error."
)

// ─────────────────────────────────────────────────────────────────────────────
// Scan handles POST /attendance.
//
// Request body (sent by the reader):
//
//	{ "rfid_tag": "a1b2c3d4" }
//
// Success response (200 OK):
//
//	{ "status": "success", "message": "Attendance recorded: Asha is now marked as IN",
//	  "time": "2025-03-01 09:30:00", "action": "IN" }
//
// Error responses:
//
//	400 Bad Request: no tag in the body
//	404 Not Found: tag is not assigned to any registration
//	500 Internal: database error
//
// HOW THE IN/OUT TOGGLE WORKS:
// ────────────────────────────
// The reader only sends a tag. We look up who owns it, then let storage
// flip that person's latest status (IN → OUT, OUT or none → IN) and append
// the new row. ToggleAttendance does the read and the write as one unit,
// so a double scan from a jittery reader records IN then OUT, never IN
// twice.
// ─────────────────────────────────────────────────────────────────────────────
func Scan(store storage.Storage, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// ── Step 1: Decode the tag from the body ──────────────────────
		var req types.ScanRequest
		// An empty or malformed body is treated like a missing tag; readers
		// only understand the message field.
		_ = json.NewDecoder(r.Body).Decode(&req)

		tag := strings.ToUpper(strings.TrimSpace(req.RFIDTag))
		if tag == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.Error(MsgNoTag))
			return
		}

		slog.Info("attendance scan", slog.String("rfid_tag", tag))

		// ── Step 2: Find the registration the tag belongs to ──────────
		reg, err := store.GetRegistrationByTag(tag)
		if errors.Is(err, storage.ErrNotFound) {
			slog.Info("unknown tag", slog.String("rfid_tag", tag))
			response.WriteJSON(w, http.StatusNotFound, response.Failure(MsgUnregistered))
			return
		}
		if err != nil {
			internalError(w, tag, err)
			return
		}

		// ── Step 3: Toggle the status and append the row atomically ───
		record, err := store.ToggleAttendance(reg, tag, now().Format(types.TimeLayout))
		if err != nil {
			internalError(w, tag, err)
			return
		}

		slog.Info("attendance recorded",
			slog.String("reg_number", record.RegNumber),
			slog.String("status", record.Status))

		response.WriteJSON(w, http.StatusOK, types.ScanResponse{
			Status:  response.StatusOK,
			Message: fmt.Sprintf("Attendance recorded: %s is now marked as %s", record.Name, record.Status),
			Time:    record.Time,
			Action:  record.Status,
		})
	}
}

func internalError(w http.ResponseWriter, tag string, err error) {
	slog.Error("error recording attendance",
		slog.String("rfid_tag", tag),
		slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.Error(MsgInternalError))
}

// GetLog handles GET /api/attendance and returns the whole log, oldest
// first.
func GetLog(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("listing attendance")

		records, err := store.GetAttendance()
		if err != nil {
			slog.Error("error listing attendance", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, records)
	}
}
