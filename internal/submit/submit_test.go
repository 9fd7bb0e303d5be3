package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indrajithvu22/tag/internal/http/handlers/registration"
	"github.com/indrajithvu22/tag/internal/storage/memory"
)

type shown struct {
	Text  string
	State State
}

// recordingDisplay keeps every Show call, with a zero entry for Hide.
type recordingDisplay struct {
	calls []shown
}

func (d *recordingDisplay) Hide() { d.calls = append(d.calls, shown{State: StateHidden}) }

func (d *recordingDisplay) Show(text string, state State) {
	d.calls = append(d.calls, shown{Text: text, State: state})
}

func (d *recordingDisplay) last() shown { return d.calls[len(d.calls)-1] }

type captured struct {
	count atomic.Int32

	mu          sync.Mutex
	method      string
	path        string
	contentType string
	body        map[string]string
}

// stubServer replies with status and body to every request and records
// what it received.
func stubServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.count.Add(1)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.method = r.Method
		c.path = r.URL.Path
		c.contentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &c.body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validForm() *MapForm {
	return NewMapForm(map[string]string{"name": "Asha", "regNumber": "21BCE001"})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "hidden", StateHidden.String())
	assert.Equal(t, "success", StateSuccess.String())
	assert.Equal(t, "error", StateError.String())
}

func TestSubmitMissingFieldSkipsRequest(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"empty name", map[string]string{"name": "", "regNumber": "21BCE001"}},
		{"empty reg number", map[string]string{"name": "Asha", "regNumber": ""}},
		{"both absent", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, c := stubServer(t, http.StatusOK, `{"message":"Registered"}`)
			h := New(srv.URL, WithLogger(quietLogger()))
			display := &recordingDisplay{}

			out := h.Submit(context.Background(), NewMapForm(tt.values), display)

			assert.Equal(t, Outcome{State: StateError, Message: MsgFillAllFields}, out)
			assert.Equal(t, []shown{{State: StateHidden}, {Text: MsgFillAllFields, State: StateError}}, display.calls)
			assert.Zero(t, c.count.Load())
		})
	}
}

func TestSubmitPostsJSONOnce(t *testing.T) {
	srv, c := stubServer(t, http.StatusOK, `{"message":"Registered"}`)
	h := New(srv.URL, WithLogger(quietLogger()))

	form := validForm()
	form.Set("email", "asha@example.com")

	h.Submit(context.Background(), form, &recordingDisplay{})

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.EqualValues(t, 1, c.count.Load())
	assert.Equal(t, http.MethodPost, c.method)
	assert.Equal(t, RegisterPath, c.path)
	assert.True(t, strings.HasPrefix(c.contentType, "application/json"), c.contentType)
	assert.Equal(t, map[string]string{
		"name":      "Asha",
		"regNumber": "21BCE001",
		"email":     "asha@example.com",
	}, c.body)
}

func TestSubmitSuccessClearsForm(t *testing.T) {
	srv, _ := stubServer(t, http.StatusOK, `{"message":"Registered"}`)
	h := New(srv.URL, WithLogger(quietLogger()))
	form := validForm()
	display := &recordingDisplay{}

	out := h.Submit(context.Background(), form, display)

	assert.Equal(t, Outcome{State: StateSuccess, Message: "Registered", StatusCode: http.StatusOK}, out)
	assert.Equal(t, shown{Text: "Registered", State: StateSuccess}, display.last())
	assert.Equal(t, map[string]string{"name": "", "regNumber": ""}, form.Values())
}

func TestSubmitSuccessWithoutMessage(t *testing.T) {
	srv, _ := stubServer(t, http.StatusCreated, `{}`)
	h := New(srv.URL, WithLogger(quietLogger()))

	out := h.Submit(context.Background(), validForm(), &recordingDisplay{})

	assert.Equal(t, StateSuccess, out.State)
	assert.Equal(t, MsgRegistered, out.Message)
}

func TestSubmitErrorKeepsForm(t *testing.T) {
	srv, _ := stubServer(t, http.StatusBadRequest, `{"message":"Duplicate registration"}`)
	h := New(srv.URL, WithLogger(quietLogger()))
	form := validForm()
	display := &recordingDisplay{}

	out := h.Submit(context.Background(), form, display)

	assert.Equal(t, Outcome{State: StateError, Message: "Duplicate registration", StatusCode: http.StatusBadRequest}, out)
	assert.Equal(t, shown{Text: "Duplicate registration", State: StateError}, display.last())
	assert.Equal(t, "Asha", form.Get("name"))
	assert.Equal(t, "21BCE001", form.Get("regNumber"))
}

func TestSubmitErrorFallbackMessage(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"message":""}`,
		`{"error":"boom"}`,
		`{"message":false}`,
		`{"message":0}`,
		`{"message":null}`,
		`{"message":{"a":1}}`,
		`{"message":["x"]}`,
	}
	for _, body := range bodies {
		srv, _ := stubServer(t, http.StatusBadRequest, body)
		h := New(srv.URL, WithLogger(quietLogger()))

		out := h.Submit(context.Background(), validForm(), &recordingDisplay{})

		assert.Equal(t, StateError, out.State, body)
		assert.Equal(t, MsgUnexpected, out.Message, body)
	}
}

func TestSubmitTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var logs bytes.Buffer
	h := New(url, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	form := validForm()
	display := &recordingDisplay{}

	out := h.Submit(context.Background(), form, display)

	assert.Equal(t, Outcome{State: StateError, Message: MsgConnect}, out)
	assert.Equal(t, shown{Text: MsgConnect, State: StateError}, display.last())
	assert.Contains(t, logs.String(), "submission error")
	assert.Equal(t, "Asha", form.Get("name"))
}

func TestSubmitUnparseableResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html", `<html>oops</html>`},
		{"null", `null`},
		{"string", `"ok"`},
		{"array", `[1,2]`},
		{"number", `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := stubServer(t, http.StatusOK, tt.body)
			h := New(srv.URL, WithLogger(quietLogger()))
			form := validForm()
			display := &recordingDisplay{}

			out := h.Submit(context.Background(), form, display)

			assert.Equal(t, StateError, out.State)
			assert.Equal(t, MsgConnect, out.Message)
			assert.Equal(t, shown{Text: MsgConnect, State: StateError}, display.last())
			assert.Equal(t, "Asha", form.Get("name"))
			assert.Equal(t, "21BCE001", form.Get("regNumber"))
		})
	}
}

func TestSubmitSuccessNonStringMessage(t *testing.T) {
	srv, _ := stubServer(t, http.StatusOK, `{"message":true}`)
	h := New(srv.URL, WithLogger(quietLogger()))

	out := h.Submit(context.Background(), validForm(), &recordingDisplay{})

	assert.Equal(t, StateSuccess, out.State)
	assert.Equal(t, MsgRegistered, out.Message)
}

func TestSubmitHidesPreviousMessage(t *testing.T) {
	srv, _ := stubServer(t, http.StatusOK, `{"message":"Registered"}`)
	h := New(srv.URL, WithLogger(quietLogger()))
	display := &recordingDisplay{}

	h.Submit(context.Background(), validForm(), display)
	h.Submit(context.Background(), NewMapForm(nil), display)

	require.Len(t, display.calls, 4)
	assert.Equal(t, StateHidden, display.calls[2].State)
	assert.Equal(t, StateError, display.calls[3].State)
}

func TestSubmitAgainstRegistrationHandler(t *testing.T) {
	router := http.NewServeMux()
	router.HandleFunc("POST /register", registration.Register(memory.New()))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	h := New(srv.URL, WithHTTPClient(srv.Client()), WithLogger(quietLogger()))

	out := h.Submit(context.Background(), NewMapForm(map[string]string{"name": "Asha", "regNumber": "21bce001"}), &recordingDisplay{})
	assert.Equal(t, Outcome{State: StateSuccess, Message: registration.MsgRegistered, StatusCode: http.StatusOK}, out)

	out = h.Submit(context.Background(), NewMapForm(map[string]string{"name": "Asha", "regNumber": "21BCE001"}), &recordingDisplay{})
	assert.Equal(t, StateError, out.State)
	assert.Equal(t, http.StatusConflict, out.StatusCode)
	assert.Equal(t, "Registration Number 21BCE001 is already registered. Avoid duplicate registration.", out.Message)
}
