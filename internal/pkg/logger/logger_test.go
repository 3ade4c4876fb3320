package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(INFO)
	SetRedactPII(true)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(INFO)
		SetRedactPII(true)
	})
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]string {
	t.Helper()
	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestInfo_StructuredFields(t *testing.T) {
	buf := capture(t)

	Info("run finished", "rows_in", 10, "rows_out", 7)

	entry := decode(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "run finished", entry["msg"])
	assert.Equal(t, "10", entry["rows_in"])
	assert.Equal(t, "7", entry["rows_out"])
	assert.NotEmpty(t, entry["time"])
}

func TestLevelFilter(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Info("hidden")
	Debug("hidden")
	assert.Zero(t, buf.Len())

	Error("shown")
	assert.Equal(t, "ERROR", decode(t, buf)["level"])
}

func TestRedaction(t *testing.T) {
	buf := capture(t)

	Warn("duplicate lead", "email", "ann.k@example.com", "phone", "+380501234567",
		"detail", "row 4 shares ann.k@example.com and +38 (050) 123-45-67")

	entry := decode(t, buf)
	assert.Equal(t, "an***@example.com", entry["email"])
	assert.Equal(t, "***67", entry["phone"])
	assert.Equal(t, "row 4 shares an***@example.com and ***67", entry["detail"])
}

func TestRedaction_DatesUntouched(t *testing.T) {
	buf := capture(t)

	Info("window", "range", "2024-01-02 to 2024-02-01")

	assert.Equal(t, "2024-01-02 to 2024-02-01", decode(t, buf)["range"])
}

func TestRedactionDisabled(t *testing.T) {
	buf := capture(t)
	SetRedactPII(false)

	Info("lead", "email", "ann@example.com")

	assert.Equal(t, "ann@example.com", decode(t, buf)["email"])
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}

func TestRedactPhone(t *testing.T) {
	assert.Equal(t, "***67", RedactPhone("+380501234567"))
	assert.Equal(t, "***", RedactPhone("12"))
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": DEBUG, "INFO": INFO, "": INFO, "warning": WARN, "Error": ERROR} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
