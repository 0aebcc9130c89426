package version

import (
	"fmt"
)

// SchemaVersionError indicates a schema version problem during file read.
type SchemaVersionError struct {
	FileType    string // "collection", "inventory", "settings", ...
	FilePath    string // Path to the problematic file
	Found       string // What was found (e.g., "missing", "2", "settings/2")
	Expected    string // What was expected (e.g., "1", "settings/1")
	MinRequired string // Minimum crack version required (if upgrade needed)
}

func (e *SchemaVersionError) Error() string {
	if e.MinRequired != "" {
		return fmt.Sprintf(
			"%s schema version %s requires crack >= %s (file: %s, supports up to: %s)",
			e.FileType, e.Found, e.MinRequired, e.FilePath, e.Expected,
		)
	}
	if e.Found == "missing" {
		return fmt.Sprintf("%s has no schema version (file: %s)", e.FileType, e.FilePath)
	}
	return fmt.Sprintf(
		"%s has invalid schema version: found %s, expected %s (file: %s)",
		e.FileType, e.Found, e.Expected, e.FilePath,
	)
}

// CheckFileVersion validates the _v field of a JSON state file.
// A zero version is treated as missing.
func CheckFileVersion(fileType, path string, found, expected int) error {
	if found == expected {
		return nil
	}
	if found == 0 {
		return &SchemaVersionError{
			FileType: fileType,
			FilePath: path,
			Found:    "missing",
			Expected: fmt.Sprintf("%d", expected),
		}
	}
	e := &SchemaVersionError{
		FileType: fileType,
		FilePath: path,
		Found:    fmt.Sprintf("%d", found),
		Expected: fmt.Sprintf("%d", expected),
	}
	// If the found version is newer, look up the min required crack version
	if found > expected {
		key := fmt.Sprintf("%s/%d", fileType, found)
		if minCrack, ok := MinCrackVersion[key]; ok {
			e.MinRequired = minCrack
		} else {
			e.MinRequired = "a newer version"
		}
	}
	return e
}

// InvalidSettingsSchema creates an error for settings with an unsupported schema.
func InvalidSettingsSchema(path, found string) error {
	e := &SchemaVersionError{
		FileType: "settings",
		FilePath: path,
		Found:    found,
		Expected: CurrentSettingsSchema(),
	}
	if found == "" {
		e.Found = "missing"
		return e
	}
	// Check if it's a future version
	if v, err := ParseSettingsVersion(found); err == nil && v > CurrentSettingsVersion {
		if minCrack, ok := MinCrackVersion[found]; ok {
			e.MinRequired = minCrack
		} else {
			e.MinRequired = "a newer version"
		}
	}
	return e
}
