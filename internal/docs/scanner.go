package docs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ScannedFile is a markdown file discovered under the docs root.
type ScannedFile struct {
	AbsPath string
	RelPath string // Relative to the docs root, forward slashes
}

// ScanCorpus walks the docs root and returns every markdown file found.
// A missing root is not an error: the corpus is simply empty.
func ScanCorpus(ctx context.Context, root string) ([]ScannedFile, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var files []ScannedFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			// Skip hidden directories (e.g. .git, editor state)
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".md" {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		files = append(files, ScannedFile{
			AbsPath: path,
			RelPath: filepath.ToSlash(relPath),
		})
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("failed to scan docs root %s: %w", root, err)
	}
	return files, nil
}
