package print

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/stepgrid/internal/ctxlog"
)

func TestPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	t.Setenv("STEPGRID_TEST_WHO", "world")

	a := printMessage(ctx, "hello ${STEPGRID_TEST_WHO}")
	assert.Equal(t, "hello world", string(a.Data))
	assert.Equal(t, "text/plain", a.MediaType)
	assert.Contains(t, buf.String(), `message="hello world"`)
}

func TestPrintVariables(t *testing.T) {
	t.Setenv("STEPGRID_TEST_B", "2")
	t.Setenv("STEPGRID_TEST_A", "1")

	a := printVariables(context.Background(), "STEPGRID_TEST_B, STEPGRID_TEST_A,STEPGRID_TEST_UNSET_X")
	assert.Equal(t, "STEPGRID_TEST_A = \"1\"\nSTEPGRID_TEST_B = \"2\"\nSTEPGRID_TEST_UNSET_X = (null)\n", string(a.Data))
}
