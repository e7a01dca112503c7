package fonts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnavailable reports that the inventory source cannot be enumerated.
var ErrUnavailable = errors.New("font inventory unavailable")

// Inventory lists installed font names. Names are the file name up to the
// first '.', matched case-sensitively.
type Inventory interface {
	Fonts() (map[string]struct{}, error)
}

// Dir scans a directory tree for .ttf and .otf files.
type Dir struct {
	Path string
}

// Fonts walks the directory and returns the set of font names found.
func (d Dir) Fonts() (map[string]struct{}, error) {
	root := strings.TrimSpace(d.Path)
	if root == "" {
		return nil, fmt.Errorf("%w: no font directory configured", ErrUnavailable)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrUnavailable, root)
	}

	names := make(map[string]struct{})
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subdirectories are skipped; the root was already stat'ed.
			if entry != nil && entry.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if name, ok := FontName(entry.Name()); ok {
			names[name] = struct{}{}
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, root, walkErr)
	}
	return names, nil
}

// FontName derives the inventory name from a font file name, reporting false
// for files that are not TrueType or OpenType fonts.
func FontName(fileName string) (string, bool) {
	lower := strings.ToLower(fileName)
	if !strings.HasSuffix(lower, ".ttf") && !strings.HasSuffix(lower, ".otf") {
		return "", false
	}
	name, _, _ := strings.Cut(fileName, ".")
	if name == "" {
		return "", false
	}
	return name, true
}

// Static is a fixed inventory.
type Static []string

// Fonts returns the static names as a set.
func (s Static) Fonts() (map[string]struct{}, error) {
	names := make(map[string]struct{}, len(s))
	for _, name := range s {
		names[name] = struct{}{}
	}
	return names, nil
}

// Unavailable is an inventory whose source is always absent.
type Unavailable struct{}

// Fonts always returns ErrUnavailable.
func (Unavailable) Fonts() (map[string]struct{}, error) {
	return nil, ErrUnavailable
}

// Sorted returns the names of set in lexical order.
func Sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
