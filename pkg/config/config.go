// Package config loads the project settings of the transformer from a YAML
// or HCL file.
package config

import (
	"bytes"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/walteh/etsls/pkg/rewrite"
)

// FileNames are looked up in this order.
var FileNames = []string{".etsls.yaml", ".etsls.yml", ".etsls.hcl"}

type Config struct {
	// Extensions selects the files to transform, e.g. ".ets".
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty" hcl:"extensions,optional"`
	Include    []string `json:"include,omitempty" yaml:"include,omitempty" hcl:"include,optional"`
	Exclude    []string `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional"`

	Passes *Passes `json:"passes,omitempty" yaml:"passes,omitempty" hcl:"passes,block"`

	StructClassPrefix string `json:"struct_class_prefix,omitempty" yaml:"struct_class_prefix,omitempty" hcl:"struct_class_prefix,optional"`
	// NewLine is "lf", "crlf" or "cr". Empty defers to .editorconfig.
	NewLine string `json:"new_line,omitempty" yaml:"new_line,omitempty" hcl:"new_line,optional"`

	// SDKPaths are the SDK directories. Relative paths start at Dir.
	SDKPaths []string `json:"sdk_paths,omitempty" yaml:"sdk_paths,omitempty" hcl:"sdk_paths,optional"`
	// Verification overrides diagnostics on copied source when set.
	Verification *bool `json:"verification,omitempty" yaml:"verification,omitempty" hcl:"verification,optional"`
	// Locale picks the language of hover texts, e.g. "zh-cn".
	Locale string `json:"locale,omitempty" yaml:"locale,omitempty" hcl:"locale,optional"`

	// dir is where the config file was found.
	dir string
}

// Passes toggles rewrite passes. A missing toggle is on.
type Passes struct {
	Structs      *bool `json:"structs,omitempty" yaml:"structs,omitempty" hcl:"structs,optional"`
	Disambiguate *bool `json:"disambiguate,omitempty" yaml:"disambiguate,omitempty" hcl:"disambiguate,optional"`
	Decorators   *bool `json:"decorators,omitempty" yaml:"decorators,omitempty" hcl:"decorators,optional"`
	ThisAlias    *bool `json:"this_alias,omitempty" yaml:"this_alias,omitempty" hcl:"this_alias,optional"`
}

func Default() *Config {
	return &Config{
		Extensions:        []string{".ets"},
		StructClassPrefix: rewrite.DefaultStructClassPrefix,
	}
}

// Load reads a config file; the format follows the extension.
func Load(fs afero.Fs, file string) (*Config, error) {
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if strings.HasSuffix(file, ".yaml") || strings.HasSuffix(file, ".yml") {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
	} else {
		parser := hclparse.NewParser()
		hclFile, diags := parser.ParseHCL(data, file)
		if diags.HasErrors() {
			return nil, errors.Errorf("parsing HCL: %s", diags.Error())
		}

		evalCtx := &hcl.EvalContext{
			Variables: map[string]cty.Value{
				"rewrite": cty.ObjectVal(map[string]cty.Value{
					"struct_class_prefix": cty.StringVal(rewrite.DefaultStructClassPrefix),
				}),
			},
		}

		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, cfg)
		if diags.HasErrors() {
			return nil, errors.Errorf("decoding HCL: %s", diags.Error())
		}
	}

	cfg.fillDefaults()
	cfg.dir = filepath.Dir(file)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("invalid config %s: %w", file, err)
	}
	return cfg, nil
}

// Find looks for a config file in dir and its parents. Without one it
// returns the defaults rooted at dir.
func Find(fs afero.Fs, dir string) (*Config, string, error) {
	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		for _, name := range FileNames {
			file := filepath.Join(d, name)
			if ok, _ := afero.Exists(fs, file); ok {
				cfg, err := Load(fs, file)
				return cfg, file, err
			}
		}
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}

	cfg := Default()
	cfg.dir = filepath.Clean(dir)
	return cfg, "", nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if len(c.Extensions) == 0 {
		c.Extensions = def.Extensions
	}
	if c.StructClassPrefix == "" {
		c.StructClassPrefix = def.StructClassPrefix
	}
}

var identRegex = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

func (c *Config) Validate() error {
	var errs error
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = multierr.Append(errs, errors.Errorf("extension %q must start with a dot", ext))
		}
	}
	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			errs = multierr.Append(errs, errors.Errorf("invalid glob %q", p))
		}
	}
	if !identRegex.MatchString(c.StructClassPrefix) {
		errs = multierr.Append(errs, errors.Errorf("struct_class_prefix %q is not an identifier", c.StructClassPrefix))
	}
	if _, ok := newLines[strings.ToLower(c.NewLine)]; !ok && c.NewLine != "" {
		errs = multierr.Append(errs, errors.Errorf("new_line %q must be lf, crlf or cr", c.NewLine))
	}
	for _, dir := range c.SDKPaths {
		if strings.TrimSpace(dir) == "" {
			errs = multierr.Append(errs, errors.Errorf("sdk_paths entries must not be empty"))
		}
	}
	return errs
}

// Dir is the directory globs are relative to.
func (c *Config) Dir() string {
	return c.dir
}

// SDKDirs are the SDK paths made absolute against Dir.
func (c *Config) SDKDirs() []string {
	dirs := make([]string, 0, len(c.SDKPaths))
	for _, dir := range c.SDKPaths {
		if !filepath.IsAbs(dir) && c.dir != "" {
			dir = filepath.Join(c.dir, dir)
		}
		dirs = append(dirs, filepath.Clean(dir))
	}
	return dirs
}

// Match reports whether file should be transformed. Globs match the slash
// separated path relative to Dir.
func (c *Config) Match(file string) bool {
	if !c.hasExtension(file) {
		return false
	}

	rel := file
	if c.dir != "" {
		if r, err := filepath.Rel(c.dir, file); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)

	if len(c.Include) > 0 && !matchAny(c.Include, rel) {
		return false
	}
	return !matchAny(c.Exclude, rel)
}

func (c *Config) hasExtension(file string) bool {
	base := strings.ToLower(path.Base(filepath.ToSlash(file)))
	for _, ext := range c.Extensions {
		if strings.HasSuffix(base, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (c *Config) RewriteOptions() rewrite.Options {
	opts := rewrite.DefaultOptions()
	opts.StructClassPrefix = c.StructClassPrefix
	if p := c.Passes; p != nil {
		opts.Structs = enabled(p.Structs)
		opts.Disambiguate = enabled(p.Disambiguate)
		opts.Decorators = enabled(p.Decorators)
		opts.ThisAlias = enabled(p.ThisAlias)
	}
	return opts
}

func enabled(b *bool) bool {
	return b == nil || *b
}
