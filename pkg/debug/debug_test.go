package debug_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/etsls/pkg/debug"
)

func TestSplitFuncName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantPkg string
		wantFn  string
	}{
		{"plain_function", "github.com/walteh/etsls/pkg/rewrite.Stages", "github.com/walteh/etsls/pkg/rewrite", "Stages"},
		{"pointer_method", "github.com/walteh/etsls/pkg/editbuf.(*Buffer).Insert", "github.com/walteh/etsls/pkg/editbuf", "(*Buffer).Insert"},
		{"closure", "main.run.func1", "main", "run.func1"},
		{"no_dot", "runtime", "runtime", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, fn := debug.SplitFuncName(tt.input)
			assert.Equal(t, tt.wantPkg, pkg)
			assert.Equal(t, tt.wantFn, fn)
		})
	}
}

func TestFormatCaller(t *testing.T) {
	assert.Equal(t, "pkg/x:file.go:12", debug.FormatCaller("pkg/x", "/a/b/file.go", 12, false))
	assert.Contains(t, debug.FormatCaller("pkg/x", "/a/b/file.go", 12, true), "file.go")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := debug.NewLogger(&buf, debug.Options{Level: zerolog.InfoLevel, JSON: true})

	logger.Debug().Msg("hidden")
	logger.Info().Str("stage", "structs").Msg("stage resolved")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var event map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &event))
	assert.Equal(t, "stage resolved", event["message"])
	assert.Equal(t, "structs", event["stage"])
	assert.NotEmpty(t, event["time"])
	assert.NotEmpty(t, event["caller"])
}
