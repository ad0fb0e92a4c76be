package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifestVersion(t *testing.T) {
	v, err := ParseManifestVersion("v4-5-0")
	require.NoError(t, err)
	assert.Equal(t, ManifestVersion{Major: 4, Minor: 5, Patch: 0}, v)
	assert.Equal(t, "v4-5-0", v.String())

	for _, bad := range []string{"4-5-0", "v4.5.0", "v4-5", "v4-5-0-1", ""} {
		_, err := ParseManifestVersion(bad)
		assert.Error(t, err, bad)
	}
}

func TestVersionBumps(t *testing.T) {
	v := ManifestVersion{Major: 4, Minor: 5, Patch: 2}

	// a regular run resets the patch component
	assert.Equal(t, "v4-6-0", v.BumpMinor().String())
	assert.Equal(t, "v4-5-3", v.BumpPatch().String())
}

func TestManifestFilename(t *testing.T) {
	name := ManifestFilename(StageCanonical, ManifestVersion{Major: 4, Minor: 5})
	assert.Equal(t, "canonical_v4-5-0.json", name)

	stage, v, err := ParseManifestFilename(name)
	require.NoError(t, err)
	assert.Equal(t, "canonical", stage)
	assert.Equal(t, ManifestVersion{Major: 4, Minor: 5}, v)

	_, _, err = ParseManifestFilename("canonical-v4-5-0.json")
	assert.Error(t, err)
}

func TestValidateStage(t *testing.T) {
	stage, err := ValidateStage("canonical")
	require.NoError(t, err)
	assert.Equal(t, StageCanonical, stage)

	stage, err = ValidateStage("text-reuse")
	require.NoError(t, err)
	assert.Equal(t, StageTextReuse, stage)

	_, err = ValidateStage("mystery")
	assert.Error(t, err)
	_, err = ValidateStage("")
	assert.Error(t, err)
}

func TestNextVersion(t *testing.T) {
	// no previous manifest: start at v1-0-0
	v, err := NextVersion("", false)
	require.NoError(t, err)
	assert.Equal(t, "v1-0-0", v.String())

	// regular run bumps the minor component
	v, err = NextVersion("s3://12-canonical-final/canonical_v4-5-0.json", false)
	require.NoError(t, err)
	assert.Equal(t, "v4-6-0", v.String())

	// patch run bumps the patch component
	v, err = NextVersion("s3://12-canonical-final/canonical_v4-5-0.json", true)
	require.NoError(t, err)
	assert.Equal(t, "v4-5-1", v.String())

	_, err = NextVersion("s3://12-canonical-final/not-a-manifest.txt", false)
	assert.Error(t, err)
}
