// Package types holds the shared data structures used across the
// application. Handlers, storage, and the submission client all import
// types without depending on each other.
package types

// Registration is one registered person. RFIDTag stays empty until a tag
// is assigned to the registration.
//
// The validate:"..." tags are checked by go-playground/validator on the
// incoming request payload.
type Registration struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"      validate:"required"`
	RegNumber string `json:"regNumber" validate:"required"`
	RFIDTag   string `json:"rfidTag,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// RegisterResponse is the body returned by a successful POST /register.
type RegisterResponse struct {
	Message   string `json:"message"`
	Name      string `json:"name"`
	RegNumber string `json:"regNumber"`
}

// TagAssignment is the body of PUT /api/registrations/{regNumber}/tag.
type TagAssignment struct {
	RFIDTag string `json:"rfidTag" validate:"required"`
}

// TimeLayout is the format of every timestamp the service stores and
// returns.
const TimeLayout = "2006-01-02 15:04:05"

// Attendance statuses. A person alternates between them on every scan.
const (
	StatusIn  = "IN"
	StatusOut = "OUT"
)

// NextStatus returns the status a scan records given the previous one.
// Anyone not currently IN is checked IN.
func NextStatus(last string) string {
	if last == StatusIn {
		return StatusOut
	}
	return StatusIn
}

// AttendanceRecord is one row of the IN/OUT log.
type AttendanceRecord struct {
	ID        int64  `json:"id"`
	Time      string `json:"time"`
	Name      string `json:"name"`
	RegNumber string `json:"regNumber"`
	RFIDTag   string `json:"rfidTag"`
	Status    string `json:"status"`
}

// ScanRequest is the body a tag reader sends to POST /attendance.
type ScanRequest struct {
	RFIDTag string `json:"rfid_tag"`
}

// ScanResponse is the body returned by a successful POST /attendance.
type ScanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Time    string `json:"time"`
	Action  string `json:"action"`
}
