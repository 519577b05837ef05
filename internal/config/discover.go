package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DiscoverProjects resolves the project directories to deploy.
//
// With explicit names, each must exist under rootDir. With no names,
// every sorted subdirectory of rootDir containing a config.json is
// selected.
func DiscoverProjects(rootDir string, names []string) ([]string, error) {
	if len(names) > 0 {
		dirs := make([]string, 0, len(names))
		for _, name := range names {
			dir := filepath.Join(rootDir, name)
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return nil, fmt.Errorf("project directory not found: %s", dir)
			}
			dirs = append(dirs, dir)
		}
		return dirs, nil
	}

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects directory %s: %w", rootDir, err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(rootDir, e.Name())
		if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err == nil {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)

	if len(dirs) == 0 {
		return nil, fmt.Errorf("no project directories with %s found in %s", ConfigFileName, rootDir)
	}
	return dirs, nil
}
