package emit

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml"
)

// BuildManifestName is the optional TOML manifest a host build tool can
// drop next to the unit dump to carry build settings.
const BuildManifestName = "cxxglue.toml"

// buildManifest mirrors the [build] table of cxxglue.toml.
type buildManifest struct {
	Build struct {
		OutDir string   `toml:"out_dir"`
		Flags  []string `toml:"flags"`
	} `toml:"build"`
}

// ResolveOutDir resolves the output directory for the generated document
// and archive: an explicit setting wins, then the build manifest's
// build.out_dir, then the current working directory. Only when the working
// directory itself cannot be resolved does the build abort.
func ResolveOutDir(explicit, manifestPath string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if manifestPath != "" {
		if m, err := loadManifest(manifestPath); err == nil && m.Build.OutDir != "" {
			return m.Build.OutDir, nil
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}
	return wd, nil
}

// ManifestFlags returns the extra compiler flags listed in the build
// manifest, or nil when the manifest is absent or carries none.
func ManifestFlags(manifestPath string) []string {
	if manifestPath == "" {
		return nil
	}
	m, err := loadManifest(manifestPath)
	if err != nil {
		return nil
	}
	return m.Build.Flags
}

func loadManifest(path string) (*buildManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m buildManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse build manifest %s: %w", path, err)
	}
	return &m, nil
}
