package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		GitPath:         "git",
		DataDir:         t.TempDir(),
		Mode:            "by-file",
		ContextLines:    3,
		IdentityContext: 3,
	}
}

func TestValidateDeep_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.Ignore = []string{"**/*_test.go", "vendor/**", "*.gen.go"}

	err := cfg.ValidateDeep("")
	assert.NoError(t, err, "expected valid config")
}

func TestValidateDeep_InvalidGlob(t *testing.T) {
	cfg := validConfig(t)
	cfg.Ignore = []string{"good/**", "bad[pattern"}

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 1)
	assert.Contains(t, fieldErrs[0].Field, "ignore[1]")
	assert.Contains(t, fieldErrs[0].Err.Error(), "invalid glob")
}

func TestValidateDeep_GitExecutableMissing(t *testing.T) {
	cfg := validConfig(t)
	cfg.GitPath = "definitely-not-a-real-binary-xyz"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 1)
	assert.Contains(t, fieldErrs[0].Field, "git_path")
	assert.Contains(t, fieldErrs[0].Err.Error(), "executable not found")
}

func TestValidateDeep_DataDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.DataDir = blocker

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs[0].Field, "data_dir")
	assert.Contains(t, fieldErrs[0].Err.Error(), "not a directory")
}

func TestValidateDeep_ConfigPathIsDirectory(t *testing.T) {
	cfg := validConfig(t)

	err := cfg.ValidateDeep(t.TempDir())

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs[0].Field, "config_file")
}

func TestValidateDeep_MissingConfigPathIsFine(t *testing.T) {
	cfg := validConfig(t)
	err := cfg.ValidateDeep(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
}

func TestWarnings_CatchAllIgnore(t *testing.T) {
	cfg := validConfig(t)
	cfg.Ignore = []string{"pkg/**", "**"}

	warnings := cfg.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Ignore", warnings[0].Category)
	assert.Equal(t, "ignore[1]", warnings[0].Item)
}

func TestWarnings_CleanConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.Ignore = []string{"vendor/**"}
	assert.Empty(t, cfg.Warnings())
}
