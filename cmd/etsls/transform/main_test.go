package transform_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/etsls/cmd/etsls/transform"
)

func setup(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/proj/.etsls.yaml":      "exclude: [\"**/gen/**\"]\n",
		"/proj/src/Index.ets":    "let x = $$this;\n",
		"/proj/src/Card.ets":     "struct Card {}\n",
		"/proj/src/gen/Skip.ets": "let skipped = $$this;\n",
		"/proj/src/util.ts":      "export const a = 1;\n",
		"/proj/other/.etsls.hcl": "new_line = \"crlf\"\n",
		"/proj/other/Crlf.ets":   "struct A {}",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	cmd := transform.NewTransformCommand(fs)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTransformFile(t *testing.T) {
	out, err := execute(t, setup(t), "/proj/src/Index.ets")
	require.NoError(t, err)
	assert.Equal(t, "let x =   this;\n", out)
}

func TestTransformDirectory(t *testing.T) {
	out, err := execute(t, setup(t), "/proj/src")
	require.NoError(t, err)

	assert.Equal(t,
		"// /proj/src/Card.ets\n"+
			"class  __Struct_Card {}\n"+
			"declare const Card: ((options?: Partial<__Struct_Card>) => __Struct_Card) & typeof __Struct_Card;\n"+
			"// /proj/src/Index.ets\n"+
			"let x =   this;\n",
		out)
	assert.NotContains(t, out, "skipped")
	assert.NotContains(t, out, "export const a")
}

func TestTransformUsesConfiguredNewLine(t *testing.T) {
	out, err := execute(t, setup(t), "/proj/other/Crlf.ets")
	require.NoError(t, err)
	assert.Contains(t, out, "class  __Struct_A {}\r\ndeclare const A")
}

func TestTransformMappings(t *testing.T) {
	out, err := execute(t, setup(t), "--mappings", "/proj/src/Index.ets")
	require.NoError(t, err)

	var vc struct {
		GeneratedText string `json:"generatedText"`
		LanguageID    string `json:"languageId"`
		Mappings      []struct {
			SourceOffsets []int `json:"sourceOffsets"`
			Data          struct {
				Verification bool `json:"verification"`
			} `json:"data"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &vc))
	assert.Equal(t, "let x =   this;\n", vc.GeneratedText)
	assert.Equal(t, "ets", vc.LanguageID)
	require.Len(t, vc.Mappings, 3)
	assert.Equal(t, []int{8}, vc.Mappings[1].SourceOffsets)
	assert.False(t, vc.Mappings[1].Data.Verification)
}

func TestTransformDiff(t *testing.T) {
	out, err := execute(t, setup(t), "--diff", "/proj/src/Index.ets")
	require.NoError(t, err)
	assert.Contains(t, out, "-let x = $$this;\n")
	assert.Contains(t, out, "+let x =   this;\n")
}

func TestTransformMissingPath(t *testing.T) {
	_, err := execute(t, setup(t), "/proj/missing.ets")
	require.Error(t, err)
}

func TestLineDiff(t *testing.T) {
	got := transform.LineDiff("a\nb\nc\n", "a\nB\nc\n")
	assert.Equal(t, " a\n-b\n+B\n c\n", got)
}
