package config

import (
	"path/filepath"
	"strings"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/spf13/afero"
)

var newLines = map[string]string{
	editorconfig.EndOfLineLf:   "\n",
	editorconfig.EndOfLineCrLf: "\r\n",
	editorconfig.EndOfLineCr:   "\r",
}

const editorconfigFile = ".editorconfig"

// NewLineFor returns the line break rewrites insert into file: the
// configured one, else the end_of_line of the closest .editorconfig
// section matching file, else "\n".
func (c *Config) NewLineFor(fs afero.Fs, file string) string {
	if nl, ok := newLines[strings.ToLower(c.NewLine)]; ok {
		return nl
	}
	if nl, ok := newLines[editorconfigEndOfLine(fs, file)]; ok {
		return nl
	}
	return "\n"
}

// editorconfigEndOfLine walks from the file's directory up to the nearest
// root .editorconfig. Closer files win.
func editorconfigEndOfLine(fs afero.Fs, file string) string {
	file = filepath.Clean(file)
	eol := ""
	for dir := filepath.Dir(file); ; dir = filepath.Dir(dir) {
		ec, ok := readEditorconfig(fs, filepath.Join(dir, editorconfigFile))
		if ok {
			if eol == "" {
				if rel, err := filepath.Rel(dir, file); err == nil {
					if def, err := ec.GetDefinitionForFilename(filepath.ToSlash(rel)); err == nil && def.EndOfLine != "" {
						eol = strings.ToLower(def.EndOfLine)
					}
				}
			}
			if ec.Root {
				break
			}
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}
	return eol
}

func readEditorconfig(fs afero.Fs, file string) (*editorconfig.Editorconfig, bool) {
	f, err := fs.Open(file)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	ec, err := editorconfig.Parse(f)
	if err != nil {
		return nil, false
	}
	return ec, true
}
