package builder

import (
	"fmt"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultSourceExtensions are the suffixes of compilable sources
var DefaultSourceExtensions = []string{".cpp"}

// DiscoverSources returns every file under root whose name ends with one of
// exts, as sorted slash-separated paths relative to root
func DiscoverSources(root string, exts []string) ([]string, error) {
	stat, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var files []string
	for _, ext := range exts {
		matches, err := doublestar.Glob(fsys, "**/*"+ext, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("while globbing %s: %w", root, err)
		}
		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			files = append(files, match)
		}
	}

	slices.Sort(files)
	return files, nil
}
