package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// findScenarioFiles expands paths into scenario files. Directories are
// walked for .yaml and .yml files; files are taken as given. filter, when
// set, is a glob matched against the file name without extension.
func findScenarioFiles(paths []string, filter string) ([]string, error) {
	var files []string

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", root))
		}

		if !info.IsDir() {
			ok, err := matchesFilter(root, filter)
			if err != nil {
				return nil, err
			}
			if ok {
				files = append(files, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// Golden files live beside scenarios.
				if d.Name() == "golden" {
					return filepath.SkipDir
				}
				return nil
			}

			ext := filepath.Ext(path)
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}

			ok, err := matchesFilter(path, filter)
			if err != nil {
				return err
			}
			if ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func matchesFilter(path, filter string) (bool, error) {
	if filter == "" {
		return true, nil
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	matched, err := filepath.Match(filter, name)
	if err != nil {
		return false, NewExitError(ExitCommandError, fmt.Sprintf("invalid filter pattern: %v", err))
	}
	return matched, nil
}

// goldenFilePath returns the path to the golden file for a scenario file.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}
