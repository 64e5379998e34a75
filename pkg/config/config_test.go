package config_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/walteh/etsls/pkg/config"
	"github.com/walteh/etsls/pkg/editbuf"
	"github.com/walteh/etsls/pkg/rewrite"
	"github.com/walteh/etsls/pkg/virtualcode"
)

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestLoadYAML(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/proj/.etsls.yaml": `
extensions: [".ets", ".d.ets"]
include: ["src/**"]
exclude: ["**/generated/**"]
passes:
  decorators: false
struct_class_prefix: _S
new_line: crlf
`,
	})

	cfg, err := config.Load(fs, "/proj/.etsls.yaml")
	require.NoError(t, err)

	opts := cfg.RewriteOptions()
	assert.False(t, opts.Decorators)
	assert.True(t, opts.Structs)
	assert.True(t, opts.Disambiguate)
	assert.True(t, opts.ThisAlias)
	assert.Equal(t, "_S", opts.StructClassPrefix)

	tests := []struct {
		file string
		want bool
	}{
		{"/proj/src/pages/Index.ets", true},
		{"/proj/src/api.d.ets", true},
		{"/proj/src/generated/Stub.ets", false},
		{"/proj/test/Index.ets", false},
		{"/proj/src/util.ts", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.Match(tt.file), tt.file)
	}

	assert.Equal(t, "\r\n", cfg.NewLineFor(fs, "/proj/src/pages/Index.ets"))
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	fs := memFs(t, map[string]string{"/p/.etsls.yml": "extensions: [\".ets\"]\nstructs: true\n"})
	_, err := config.Load(fs, "/p/.etsls.yml")
	require.Error(t, err)
}

func TestLoadEmptyYAML(t *testing.T) {
	fs := memFs(t, map[string]string{"/p/.etsls.yaml": ""})
	cfg, err := config.Load(fs, "/p/.etsls.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{".ets"}, cfg.Extensions)
	assert.Equal(t, rewrite.DefaultStructClassPrefix, cfg.StructClassPrefix)
}

func TestLoadHCL(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/proj/.etsls.hcl": `
extensions = [".ets"]
exclude = ["build/**"]
struct_class_prefix = "${rewrite.struct_class_prefix}X"

passes {
  this_alias = false
}
`,
	})

	cfg, err := config.Load(fs, "/proj/.etsls.hcl")
	require.NoError(t, err)
	assert.Equal(t, "__Struct_X", cfg.StructClassPrefix)

	opts := cfg.RewriteOptions()
	assert.False(t, opts.ThisAlias)
	assert.True(t, opts.Structs)

	assert.True(t, cfg.Match("/proj/entry/Index.ets"))
	assert.False(t, cfg.Match("/proj/build/Index.ets"))
}

func TestLoadHCLErrors(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/a/.etsls.hcl": "extensions = [",
		"/b/.etsls.hcl": "colour = \"red\"",
	})

	_, err := config.Load(fs, "/a/.etsls.hcl")
	require.Error(t, err)

	_, err = config.Load(fs, "/b/.etsls.hcl")
	require.Error(t, err)

	_, err = config.Load(fs, "/c/.etsls.hcl")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	cfg.Extensions = []string{"ets"}
	cfg.Include = []string{"src/[a"}
	cfg.StructClassPrefix = "1a"
	cfg.NewLine = "lfx"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
}

func TestFind(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/proj/.etsls.hcl":          `struct_class_prefix = "P_"`,
		"/proj/src/pages/Index.ets": "",
	})

	cfg, file, err := config.Find(fs, "/proj/src/pages")
	require.NoError(t, err)
	assert.Equal(t, "/proj/.etsls.hcl", file)
	assert.Equal(t, "P_", cfg.StructClassPrefix)
	assert.Equal(t, "/proj", cfg.Dir())

	cfg, file, err = config.Find(fs, "/elsewhere")
	require.NoError(t, err)
	assert.Empty(t, file)
	assert.Equal(t, rewrite.DefaultStructClassPrefix, cfg.StructClassPrefix)
	assert.True(t, cfg.Match("/elsewhere/a.ets"))
}

func TestNewLineFromEditorconfig(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/proj/.editorconfig":     "root = true\n\n[*]\nend_of_line = lf\n\n[*.ets]\nend_of_line = crlf\n",
		"/proj/sub/.editorconfig": "[*.ets]\nend_of_line = cr\n",
	})
	cfg := config.Default()

	tests := []struct {
		name string
		file string
		want string
	}{
		{"section_for_extension", "/proj/src/a.ets", "\r\n"},
		{"catch_all_section", "/proj/src/a.ts", "\n"},
		{"closer_file_wins", "/proj/sub/a.ets", "\r"},
		{"closer_file_without_match", "/proj/sub/a.ts", "\n"},
		{"no_editorconfig", "/none/a.ets", "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.NewLineFor(fs, tt.file))
		})
	}

	cfg.NewLine = "LF"
	assert.Equal(t, "\n", cfg.NewLineFor(fs, "/proj/src/a.ets"), "configured line break wins")
}

func TestLanguageID(t *testing.T) {
	cfg := config.Default()
	cfg.Extensions = []string{".ets", ".hml"}

	assert.Equal(t, virtualcode.LanguageETS, cfg.LanguageID("/a/Index.ets"))
	assert.Equal(t, virtualcode.LanguageETS, cfg.LanguageID("/a/Page.hml"))
	assert.Equal(t, virtualcode.LanguageTypeScript, cfg.LanguageID("/a/util.ts"))
	assert.Equal(t, virtualcode.LanguageNone, cfg.LanguageID("/a/readme.md"))
}

func TestSDKPathsAndVerification(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"yaml", "/proj/.etsls.yaml", "sdk_paths: [\"sdk\", \"/opt/ohos/ets\"]\nverification: false\nlocale: zh-cn\n"},
		{"hcl", "/proj/.etsls.hcl", "sdk_paths = [\"sdk\", \"/opt/ohos/ets\"]\nverification = false\nlocale = \"zh-cn\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memFs(t, map[string]string{tt.file: tt.body})

			cfg, err := config.Load(fs, tt.file)
			require.NoError(t, err)
			assert.Equal(t, []string{"/proj/sdk", "/opt/ohos/ets"}, cfg.SDKDirs())
			require.NotNil(t, cfg.Verification)
			assert.False(t, *cfg.Verification)
			assert.Equal(t, "zh-cn", cfg.Locale)

			f := cfg.Factory(fs)
			ctx := context.Background()

			vc, err := f.CreateVirtualCode(ctx, "/proj/sdk/api/a.d.ets", cfg.LanguageID("/proj/sdk/api/a.d.ets"), "declare struct A {}\n")
			require.NoError(t, err)
			require.Len(t, vc.Mappings, 1)
			assert.Equal(t, editbuf.None, vc.Mappings[0].Data)

			vc, err = f.CreateVirtualCode(ctx, "/proj/src/Index.ets", virtualcode.LanguageETS, "let a = 1;")
			require.NoError(t, err)
			require.Len(t, vc.Mappings, 1)
			assert.False(t, vc.Mappings[0].Data.Verification)
			assert.True(t, vc.Mappings[0].Data.Navigation)
		})
	}
}

func TestVerificationDefaultsToOn(t *testing.T) {
	cfg := config.Default()
	assert.Nil(t, cfg.Verification)

	vc, err := cfg.Factory(afero.NewMemMapFs()).CreateVirtualCode(context.Background(), "/a/Index.ets", virtualcode.LanguageETS, "let a = 1;")
	require.NoError(t, err)
	require.Len(t, vc.Mappings, 1)
	assert.Equal(t, editbuf.Full, vc.Mappings[0].Data)
}
