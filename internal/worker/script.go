package worker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrScriptNotFound is returned when a test function cannot be resolved to a
// script file in any of the search roots.
var ErrScriptNotFound = errors.New("test script not found")

// scriptExtensions lists the executable script types, in resolution order.
var scriptExtensions = []string{".py", ".js", ".sh"}

// DefaultScriptRoots are the directories searched for test scripts, relative
// to the working directory.
var DefaultScriptRoots = []string{
	filepath.Join("tests", "integration"),
	filepath.Join("tests", "unit"),
	filepath.Join("tests", "parallel"),
	"test_scripts",
}

// FindScript resolves a test function name to a script path. A name that
// already carries a known script extension is used as-is. Otherwise each root
// is checked for <name><ext> directly, then searched recursively for a file
// whose base name matches.
func FindScript(testFunction string, roots []string) (string, error) {
	if hasScriptExtension(testFunction) {
		return testFunction, nil
	}
	if len(roots) == 0 {
		roots = DefaultScriptRoots
	}

	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		for _, ext := range scriptExtensions {
			candidate := filepath.Join(root, testFunction+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		if found := searchTree(root, testFunction); found != "" {
			return found, nil
		}
	}
	return "", ErrScriptNotFound
}

func searchTree(root, testFunction string) string {
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || found != "" {
			return nil
		}
		base := d.Name()
		ext := filepath.Ext(base)
		if strings.TrimSuffix(base, ext) == testFunction && hasScriptExtension(base) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func hasScriptExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range scriptExtensions {
		if ext == known {
			return true
		}
	}
	return false
}
