package versioning

import (
	"fmt"
	"regexp"
	"strconv"
)

// ManifestVersion is the dash-separated semantic version of a
// manifest, rendered as "vM-m-p" (dots are reserved for model
// versions inside run identifiers).
type ManifestVersion struct {
	Major int
	Minor int
	Patch int
}

var manifestVersionRe = regexp.MustCompile(`^v(\d+)-(\d+)-(\d+)$`)

var manifestFilenameRe = regexp.MustCompile(`^([a-z][a-z-]*)_v(\d+)-(\d+)-(\d+)\.json$`)

// ParseManifestVersion parses a "vM-m-p" string.
func ParseManifestVersion(s string) (ManifestVersion, error) {
	m := manifestVersionRe.FindStringSubmatch(s)
	if m == nil {
		return ManifestVersion{}, fmt.Errorf("invalid manifest version: %q", s)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return ManifestVersion{Major: major, Minor: minor, Patch: patch}, nil
}

func (v ManifestVersion) String() string {
	return fmt.Sprintf("v%d-%d-%d", v.Major, v.Minor, v.Patch)
}

// BumpMinor returns the next version for a regular processing run.
func (v ManifestVersion) BumpMinor() ManifestVersion {
	return ManifestVersion{Major: v.Major, Minor: v.Minor + 1}
}

// BumpPatch returns the next version for a patch run that only
// modifies a subset of fields.
func (v ManifestVersion) BumpPatch() ManifestVersion {
	return ManifestVersion{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

// ManifestFilename renders the canonical manifest file name for a
// stage and version, e.g. "canonical_v4-5-0.json".
func ManifestFilename(stage DataStage, v ManifestVersion) string {
	return fmt.Sprintf("%s_%s.json", stage, v)
}

// ParseManifestFilename extracts the stage label and version from a
// manifest file name.
func ParseManifestFilename(name string) (string, ManifestVersion, error) {
	m := manifestFilenameRe.FindStringSubmatch(name)
	if m == nil {
		return "", ManifestVersion{}, fmt.Errorf("invalid manifest filename: %q", name)
	}
	major, _ := strconv.Atoi(m[2])
	minor, _ := strconv.Atoi(m[3])
	patch, _ := strconv.Atoi(m[4])
	return m[1], ManifestVersion{Major: major, Minor: minor, Patch: patch}, nil
}
