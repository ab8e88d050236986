package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "debug", want: LevelDebug},
		{input: "INFO", want: LevelInfo},
		{input: "Warning", want: LevelWarn},
		{input: "warn", want: LevelWarn},
		{input: " error ", want: LevelError},
		{input: "", want: LevelInfo},
		{input: "trace", want: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestNew_RespectsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	logger.Info("hidden")
	logger.Warn("reload failed", "file", "api.raml")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "reload failed", rec["msg"])
	assert.Equal(t, "api.raml", rec["file"])
}

func TestNew_Mirror(t *testing.T) {
	var out, mirror bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: &out, Mirror: &mirror})

	logger.With("component", "engine").Info("listening", "addr", "127.0.0.1:4280")

	assert.Contains(t, out.String(), "msg=listening")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(mirror.Bytes(), &rec))
	assert.Equal(t, "engine", rec["component"])
	assert.Equal(t, "127.0.0.1:4280", rec["addr"])
}

func TestNop(t *testing.T) {
	logger := Nop()
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(t.Context(), LevelError))
}
