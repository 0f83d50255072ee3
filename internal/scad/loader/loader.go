// Package loader assembles a scad.Document by following include/use chains
// from an entry file, so the worker can compile against a self-contained
// bundle instead of the caller's tree.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goliatone/go-customizer/pkg/scad"
)

var includePattern = regexp.MustCompile(`^\s*(?:include|use)\s+<(.+)>\s*$`)

// Loader resolves a model source tree into a Document.
type Loader struct {
	fsys fs.FS
}

// New constructs a Loader reading from the supplied filesystem.
func New(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// NewFromDir constructs a Loader rooted at a directory on disk.
func NewFromDir(dir string) *Loader {
	return &Loader{fsys: os.DirFS(dir)}
}

// Load reads the entry file and every file reachable through include/use
// statements. Includes that cannot be read become warnings: the compiler
// may still succeed if the model never calls into them.
func (l *Loader) Load(entry string) (scad.Document, []scad.Warning, error) {
	if l.fsys == nil {
		return scad.Document{}, nil, fmt.Errorf("scad loader: filesystem is nil")
	}
	entry = path.Clean(filepath.ToSlash(entry))

	files := make(map[string][]byte)
	var warnings []scad.Warning
	if err := l.collect(entry, files, &warnings); err != nil {
		return scad.Document{}, nil, err
	}

	doc, err := scad.NewDocument(entry, files)
	if err != nil {
		return scad.Document{}, nil, err
	}
	return doc, warnings, nil
}

func (l *Loader) collect(p string, files map[string][]byte, warnings *[]scad.Warning) error {
	if _, seen := files[p]; seen {
		return nil
	}

	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		if len(files) == 0 {
			return fmt.Errorf("scad loader: read entry %s: %w", p, err)
		}
		*warnings = append(*warnings, scad.Warning{
			Message: fmt.Sprintf("include %s could not be read: %v", p, err),
		})
		return nil
	}
	files[p] = data

	for i, line := range strings.Split(string(data), "\n") {
		m := includePattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		target := path.Clean(path.Join(path.Dir(p), filepath.ToSlash(strings.TrimSpace(m[1]))))
		if strings.HasPrefix(target, "../") {
			*warnings = append(*warnings, scad.Warning{
				Line:    i + 1,
				Message: fmt.Sprintf("include %s escapes the model root; skipped", m[1]),
			})
			continue
		}
		if err := l.collect(target, files, warnings); err != nil {
			return err
		}
	}
	return nil
}
