package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wucy1/ProDocuX/internal/domain/profile"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	filestore "github.com/wucy1/ProDocuX/internal/infrastructure/storage/file"
)

// seedProfile writes version 1 of a test profile into dir.
func seedProfile(t *testing.T, dir string) {
	t.Helper()
	store, err := filestore.NewStore(dir, logging.NewNopLogger())
	require.NoError(t, err)
	rs, err := profile.NewRuleSet("cosmetic-msds", "work-1", []profile.Field{
		{Name: "product_name"},
	})
	require.NoError(t, err)
	_, err = store.Save(context.Background(), rs)
	require.NoError(t, err)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestLearnJSONCommand(t *testing.T) {
	profileDir := t.TempDir()
	workDir := t.TempDir()
	seedProfile(t, profileDir)

	original := writeFile(t, workDir, "original.json", `{"product_name": "ABC Cream"}`)
	corrected := writeFile(t, workDir, "corrected.json", `{"product_name": "abc cream"}`)

	err := runCommand(t,
		"--quiet", "--profile-dir", profileDir,
		"learn", "json",
		"-w", "work-1", "-p", "cosmetic-msds",
		"--original", original, "--corrected", corrected)
	require.NoError(t, err)

	store, err := filestore.NewStore(profileDir, logging.NewNopLogger())
	require.NoError(t, err)
	head, err := store.Load(context.Background(), "cosmetic-msds", profile.LatestVersion)
	require.NoError(t, err)
	assert.Equal(t, 2, head.Version)
	require.NotNil(t, head.RuleFor("product_name"))
}

func TestLearnJSONCommandAcceptsFencedOutput(t *testing.T) {
	profileDir := t.TempDir()
	workDir := t.TempDir()
	seedProfile(t, profileDir)

	original := writeFile(t, workDir, "original.json", `{"product_name": "ABC Cream"}`)
	corrected := writeFile(t, workDir, "corrected.txt",
		"The corrected record is:\n```json\n{\"product_name\": \"abc cream\"}\n```\n")

	err := runCommand(t,
		"--quiet", "--profile-dir", profileDir,
		"learn", "json",
		"-w", "work-1", "-p", "cosmetic-msds",
		"--original", original, "--corrected", corrected)
	require.NoError(t, err)
}

func TestProfileRollbackCommand(t *testing.T) {
	profileDir := t.TempDir()
	workDir := t.TempDir()
	seedProfile(t, profileDir)

	original := writeFile(t, workDir, "original.json", `{"product_name": "ABC Cream"}`)
	corrected := writeFile(t, workDir, "corrected.json", `{"product_name": "abc cream"}`)
	require.NoError(t, runCommand(t,
		"--quiet", "--profile-dir", profileDir,
		"learn", "json",
		"-w", "work-1", "-p", "cosmetic-msds",
		"--original", original, "--corrected", corrected))

	require.NoError(t, runCommand(t,
		"--quiet", "--profile-dir", profileDir,
		"profile", "rollback", "cosmetic-msds", "--version", "1"))

	store, err := filestore.NewStore(profileDir, logging.NewNopLogger())
	require.NoError(t, err)
	head, err := store.Load(context.Background(), "cosmetic-msds", profile.LatestVersion)
	require.NoError(t, err)
	assert.Equal(t, 3, head.Version)
	assert.Empty(t, head.Rules)

	raw1, err := os.ReadFile(filepath.Join(profileDir, "cosmetic-msds", "v0001.json"))
	require.NoError(t, err)
	var v1 profile.RuleSet
	require.NoError(t, json.Unmarshal(raw1, &v1))
	assert.Equal(t, 1, v1.Version)
}

func TestLearnCommandRequiresFlags(t *testing.T) {
	err := runCommand(t, "--quiet", "--profile-dir", t.TempDir(), "learn", "json")
	require.Error(t, err)
}

func TestProfileVersionsCommandUnknownProfile(t *testing.T) {
	err := runCommand(t, "--quiet", "--profile-dir", t.TempDir(),
		"profile", "versions", "missing")
	require.Error(t, err)
}
