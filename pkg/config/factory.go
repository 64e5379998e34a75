package config

import (
	"github.com/spf13/afero"

	"github.com/walteh/etsls/pkg/virtualcode"
)

// Factory builds virtual code with the configured passes, line breaks,
// SDK paths and verification override.
func (c *Config) Factory(fs afero.Fs) *virtualcode.Factory {
	opts := []virtualcode.FactoryOpt{
		virtualcode.WithRewriteOptions(c.RewriteOptions()),
		virtualcode.WithNewLine(func(path string) string {
			return c.NewLineFor(fs, path)
		}),
		virtualcode.WithSDKPaths(c.SDKDirs()...),
	}
	if c.Verification != nil {
		opts = append(opts, virtualcode.WithVerification(*c.Verification))
	}
	return virtualcode.NewFactory(opts...)
}

// LanguageID is the language of a file, counting every configured extension
// as ETS.
func (c *Config) LanguageID(path string) virtualcode.LanguageID {
	if lang := virtualcode.GetLanguageID(path); lang != virtualcode.LanguageNone {
		return lang
	}
	if c.hasExtension(path) {
		return virtualcode.LanguageETS
	}
	return virtualcode.LanguageNone
}
