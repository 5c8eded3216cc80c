// Package ioutil wraps the module's two filesystem touch points: reading a
// source file and writing a target file. Both are scoped to a single call,
// per the specification's resource model, in the same narrow-purpose
// spirit as the teacher's LocalFilesystemLoader in template_loader.go.
package ioutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
)

// ReadSource reads the named file and returns its contents as text.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Annotatef(err, "reading %s", path)
	}
	return string(data), nil
}

// WriteTarget writes text to the named file, creating it if necessary.
func WriteTarget(path string, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return errors.Annotatef(err, "writing %s", path)
	}
	return nil
}

// DefaultTargetPath derives the default output path for --transpile when no
// explicit out argument is given: the input's basename with its extension
// replaced by .js, alongside the input.
func DefaultTargetPath(in string) string {
	ext := filepath.Ext(in)
	base := strings.TrimSuffix(in, ext)
	return base + ".js"
}
