package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCommand(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Registered"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--server", srv.URL, "--name", "Asha", "--reg-number", "21BCE001", "--field", "batch=2025"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Registered")
	assert.Equal(t, map[string]string{"name": "Asha", "regNumber": "21BCE001", "batch": "2025"}, got)
}

func TestRegisterCommandMissingField(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--server", "http://127.0.0.1:1", "--name", "Asha"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please fill out all fields.")
}

func TestRegisterCommandBadField(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--name", "Asha", "--reg-number", "1", "--field", "nokey"})

	assert.Error(t, cmd.Execute())
}
