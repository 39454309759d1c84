package render

import (
	"fmt"
	"path"
	"strings"

	"github.com/goliatone/go-packgen/pkg/typegen"
)

// Artifact path conventions. Every section lives under sections/ in a
// directory named after its key; settings use a fixed top-level directory, so
// a section keyed "settings" never shares a path with the settings unit.

const (
	// SettingsSchemaPath is the resolved settings schema JSON path.
	SettingsSchemaPath = "settings/settings.schema.json"
	// SettingsTypesPath is the settings TypeScript declaration path.
	SettingsTypesPath = "settings/settings.types.ts"
	// OpenAPIPath is the pack wide OpenAPI components document.
	OpenAPIPath = "openapi.json"
)

// SectionSchemaPath is the resolved schema JSON path for a section key.
func SectionSchemaPath(key string) string {
	return path.Join("sections", key, key+".schema.json")
}

// SectionTypesPath is the TypeScript declaration path for a section key.
func SectionTypesPath(key string) string {
	return path.Join("sections", key, key+".types.ts")
}

// TypesPath is the TypeScript declaration path for a unit.
func TypesPath(unit typegen.Unit) string {
	if unit.Settings {
		return SettingsTypesPath
	}
	return SectionTypesPath(unit.Key)
}

// CheckUnitKey rejects keys that cannot name a directory.
func CheckUnitKey(key string) error {
	switch {
	case key == "", key == ".", key == "..":
		return fmt.Errorf("render: unit key %q cannot name an artifact directory", key)
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("render: unit key %q must not contain path separators", key)
	}
	return nil
}
