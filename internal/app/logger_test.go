package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	testCases := []struct {
		name      string
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{name: "debug enables debug", level: "debug", wantDebug: true},
		{name: "upper case accepted", level: "DEBUG", wantDebug: true},
		{name: "info hides debug", level: "info"},
		{name: "unknown falls back to info", level: "verbose", wantWarn: true},
		{name: "empty falls back silently", level: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(tc.level, "text", &buf)
			logger.Debug("debug line")

			out := buf.String()
			assert.Equal(t, tc.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")), out)
			assert.Equal(t, tc.wantWarn, bytes.Contains(buf.Bytes(), []byte("Unknown log level")), out)
		})
	}
}

func TestNewLogger_JSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	newLogger("info", "json", &buf).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stepgrid", line["service"])
	assert.Equal(t, "hello", line["msg"])
}
