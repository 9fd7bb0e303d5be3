// Package registration contains the HTTP handlers for registrations.
//
// Each exported function is a factory: it receives the storage once at
// startup and returns the handler the router calls on every request.
//
//	router.HandleFunc("POST /register", registration.Register(store))
package registration

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/indrajithvu22/tag/internal/storage"
	"github.com/indrajithvu22/tag/internal/types"
	"github.com/indrajithvu22/tag/internal/utils/response"
)

// Messages shown verbatim by the registration page.
const (
	MsgRegistered     = "Registration successful! Your tag can now be assigned."
	MsgFieldsRequired = "Name and Registration Number are required."
	MsgServerError    = "An unexpected server error occurred during registration."
)

var validate = validator.New()

// NormalizeRegNumber trims and upper-cases a registration number so that
// "21bce001 " and "21BCE001" are the same person.
func NormalizeRegNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// decodeJSON reads r.Body into v and writes a 400 response on failure.
// It reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.Error("request body is empty"))
		return false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Register handles POST /register, the endpoint behind the web form.
//
// Request body:
//
//	{ "name": "Asha", "regNumber": "21bce001" }
//
// Success response (200 OK):
//
//	{ "message": "Registration successful! ...", "name": "Asha", "regNumber": "21BCE001" }
//
// Error responses:
//
//	400 Bad Request: empty body, malformed JSON, or a missing field
//	409 Conflict: registration number already registered
//	500 Internal: database error
//
// WHY NORMALISE BEFORE VALIDATING?
// ────────────────────────────────
// People type "21bce001 " as often as "21BCE001". Both must hit the same
// UNIQUE row, so the number is trimmed and upper-cased first. A name of
// only spaces trims to "" and then fails the required check like a
// missing field.
// ─────────────────────────────────────────────────────────────────────────────
func Register(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("registering")

		// ── Step 1: Decode JSON body into a Registration ──────────────
		var reg types.Registration
		if !decodeJSON(w, r, &reg) {
			return
		}

		// ── Step 2: Normalise, then validate ──────────────────────────
		reg.Name = strings.TrimSpace(reg.Name)
		reg.RegNumber = NormalizeRegNumber(reg.RegNumber)

		if err := validate.Struct(reg); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.Error(MsgFieldsRequired))
			return
		}

		// ── Step 3: Persist; a UNIQUE violation surfaces as ErrDuplicate
		created, err := store.CreateRegistration(reg.Name, reg.RegNumber)
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("duplicate registration", slog.String("reg_number", reg.RegNumber))
			response.WriteJSON(w, http.StatusConflict, response.Error(fmt.Sprintf(
				"Registration Number %s is already registered. Avoid duplicate registration.",
				reg.RegNumber)))
			return
		}
		if err != nil {
			slog.Error("error creating registration",
				slog.String("reg_number", reg.RegNumber),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error(MsgServerError))
			return
		}

		// ── Step 4: Echo the stored values back with the page message ─
		slog.Info("registration created",
			slog.Int64("id", created.ID),
			slog.String("reg_number", created.RegNumber))

		response.WriteJSON(w, http.StatusOK, types.RegisterResponse{
			Message:   MsgRegistered,
			Name:      created.Name,
			RegNumber: created.RegNumber,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/registrations.
// Returns an empty array [] (not null) when nobody is registered.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("listing registrations")

		regs, err := store.GetRegistrations()
		if err != nil {
			slog.Error("error listing registrations", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, regs)
	}
}

// writeLookupError maps a storage error to 404 or 500.
func writeLookupError(w http.ResponseWriter, op, regNumber string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
		return
	}
	slog.Error("error "+op,
		slog.String("reg_number", regNumber),
		slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}

// GetByRegNumber handles GET /api/registrations/{regNumber}.
func GetByRegNumber(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regNumber := NormalizeRegNumber(r.PathValue("regNumber"))
		slog.Info("getting a registration", slog.String("reg_number", regNumber))

		reg, err := store.GetRegistrationByRegNumber(regNumber)
		if err != nil {
			writeLookupError(w, "getting registration", regNumber, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, reg)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// AssignTag handles PUT /api/registrations/{regNumber}/tag.
//
// Request body:
//
//	{ "rfidTag": "a1b2c3d4" }
//
// Responds with the updated registration, 404 if the registration does
// not exist, or 409 if the tag already belongs to someone else.
// Reassigning the same tag to its current owner is a harmless no-op.
// ─────────────────────────────────────────────────────────────────────────────
func AssignTag(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regNumber := NormalizeRegNumber(r.PathValue("regNumber"))
		slog.Info("assigning a tag", slog.String("reg_number", regNumber))

		var body types.TagAssignment
		if !decodeJSON(w, r, &body) {
			return
		}
		body.RFIDTag = strings.ToUpper(strings.TrimSpace(body.RFIDTag))

		if err := validate.Struct(body); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		reg, err := store.AssignTag(regNumber, body.RFIDTag)
		if errors.Is(err, storage.ErrDuplicate) {
			response.WriteJSON(w, http.StatusConflict, response.Error(
				fmt.Sprintf("RFID tag %s is already assigned.", body.RFIDTag)))
			return
		}
		if err != nil {
			writeLookupError(w, "assigning tag", regNumber, err)
			return
		}

		slog.Info("tag assigned",
			slog.String("reg_number", regNumber),
			slog.String("rfid_tag", reg.RFIDTag))
		response.WriteJSON(w, http.StatusOK, reg)
	}
}

// Delete handles DELETE /api/registrations/{regNumber}.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regNumber := NormalizeRegNumber(r.PathValue("regNumber"))
		slog.Info("deleting a registration", slog.String("reg_number", regNumber))

		if err := store.DeleteRegistration(regNumber); err != nil {
			writeLookupError(w, "deleting registration", regNumber, err)
			return
		}

		slog.Info("registration deleted", slog.String("reg_number", regNumber))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
