// Package submit posts a registration form to the server and reports the
// outcome on a status display.
//
// One call to Handler.Submit is one attempt: the display is hidden, the
// form is checked for the required fields, the fields are posted as JSON
// to /register, and the display ends in the success or error state.
package submit

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"resty.dev/v3"
)

// Messages shown when the server gives nothing better.
const (
	MsgFillAllFields = "Please fill out all fields."
	MsgUnexpected    = "An unexpected error occurred."
	MsgConnect       = "Could not connect to the server. Please try again."
	MsgRegistered    = "Registration successful."
)

// RegisterPath is the endpoint every submission is posted to.
const RegisterPath = "/register"

// RequiredFields must be non-empty before anything is sent.
var RequiredFields = []string{"name", "regNumber"}

// State is what the status display currently shows. Its String form is the
// style class applied to the display element.
type State int

const (
	StateHidden State = iota
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "hidden"
	}
}

// Form is the source of field values.
type Form interface {
	// Values returns a fresh field name to value mapping.
	Values() map[string]string
	// Reset clears every field.
	Reset()
}

// Display is the single status element shared by all outcomes.
type Display interface {
	Hide()
	Show(text string, state State)
}

// Outcome is the terminal state of one submission. StatusCode is zero
// when no response was received.
type Outcome struct {
	State      State
	Message    string
	StatusCode int
}

// Handler submits forms to one server.
type Handler struct {
	client   *resty.Client
	logger   *slog.Logger
	validate *validator.Validate
}

type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sends requests through hc instead of a default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the logger transport errors are recorded on.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns a Handler posting to baseURL + RegisterPath.
func New(baseURL string, opts ...Option) *Handler {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var client *resty.Client
	if o.httpClient != nil {
		client = resty.NewWithClient(o.httpClient)
	} else {
		client = resty.New()
	}
	client.SetBaseURL(baseURL)

	return &Handler{
		client:   client,
		logger:   o.logger,
		validate: validator.New(),
	}
}

// Submit runs one submission attempt. The returned Outcome mirrors the
// last thing shown on display.
func (h *Handler) Submit(ctx context.Context, form Form, display Display) Outcome {
	display.Hide()

	data := form.Values()

	for _, field := range RequiredFields {
		if err := h.validate.Var(data[field], "required"); err != nil {
			return show(display, Outcome{State: StateError, Message: MsgFillAllFields})
		}
	}

	res, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(data).
		Post(RegisterPath)
	if err != nil {
		h.logger.Error("submission error", slog.String("error", err.Error()))
		return show(display, Outcome{State: StateError, Message: MsgConnect})
	}

	// Anything but a JSON object cannot carry a message and counts as a
	// parse failure, even on a 2xx.
	body := res.String()
	if !gjson.Valid(body) || !gjson.Parse(body).IsObject() {
		h.logger.Error("submission error",
			slog.Int("status", res.StatusCode()),
			slog.String("error", "response body is not a JSON object"))
		return show(display, Outcome{State: StateError, Message: MsgConnect, StatusCode: res.StatusCode()})
	}

	message := messageOf(body)

	if res.IsSuccess() {
		if message == "" {
			message = MsgRegistered
		}
		out := show(display, Outcome{State: StateSuccess, Message: message, StatusCode: res.StatusCode()})
		form.Reset()
		return out
	}

	if message == "" {
		message = MsgUnexpected
	}
	return show(display, Outcome{State: StateError, Message: message, StatusCode: res.StatusCode()})
}

// messageOf returns the body's "message" field when it is a string. Any
// other type is treated as absent.
func messageOf(body string) string {
	r := gjson.Get(body, "message")
	if r.Type != gjson.String {
		return ""
	}
	return r.Str
}

func show(display Display, out Outcome) Outcome {
	display.Show(out.Message, out.State)
	return out
}
