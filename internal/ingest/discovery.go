package ingest

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// supportedExtensions is the document/chunk extension allow-list.
var supportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".pdf":      true,
}

// IsSupported reports whether path carries a supported document extension.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// DiscoverFiles walks root recursively and returns every file with a
// supported extension, in lexical order.
func DiscoverFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if IsSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
