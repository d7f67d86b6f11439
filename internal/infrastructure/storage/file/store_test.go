package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wucy1/ProDocuX/internal/domain/profile"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/errors"
	"github.com/wucy1/ProDocuX/pkg/types/learning"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), logging.NewNopLogger())
	require.NoError(t, err)
	return s
}

func ruleSetV(t *testing.T, version int) *profile.RuleSet {
	t.Helper()
	rs, err := profile.NewRuleSet("cosmetics", "work-1", []profile.Field{{Name: "product_name"}})
	require.NoError(t, err)
	rs.Version = version
	if version > 1 {
		rs.Rules = []learning.TransformationRule{
			{FieldPath: "product_name", Tag: learning.TransformCaseConversion, Confidence: 0.8},
		}
	}
	return rs
}

func TestStore_SaveAndLoadLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.Save(ctx, ruleSetV(t, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = s.Save(ctx, ruleSetV(t, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	latest, err := s.Load(ctx, "cosmetics", profile.LatestVersion)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	require.Len(t, latest.Rules, 1)
}

func TestStore_HistoricalVersionByteIdentical(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v1 := ruleSetV(t, 1)
	_, err := s.Save(ctx, v1)
	require.NoError(t, err)
	_, err = s.Save(ctx, ruleSetV(t, 2))
	require.NoError(t, err)

	reloaded, err := s.Load(ctx, "cosmetics", 1)
	require.NoError(t, err)

	want, err := json.Marshal(v1)
	require.NoError(t, err)
	got, err := json.Marshal(reloaded)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestStore_SaveRefusesExistingVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, ruleSetV(t, 1))
	require.NoError(t, err)

	_, err = s.Save(ctx, ruleSetV(t, 1))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
}

func TestStore_ListVersions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for v := 1; v <= 3; v++ {
		_, err := s.Save(ctx, ruleSetV(t, v))
		require.NoError(t, err)
	}

	versions, err := s.ListVersions(ctx, "cosmetics")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, 3, versions[2].Version)
	assert.Equal(t, 1, versions[2].RuleCount)
}

func TestStore_MissingProfileAndVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, "ghost", profile.LatestVersion)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = s.Save(ctx, ruleSetV(t, 1))
	require.NoError(t, err)
	_, err = s.Load(ctx, "cosmetics", 9)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProfileVersionInvalid))
}

func TestStore_CorruptedFileReported(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, ruleSetV(t, 1))
	require.NoError(t, err)

	path := filepath.Join(s.Dir(), "cosmetics", "v0001.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	_, err = s.Load(ctx, "cosmetics", 1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProfileStoreCorrupted))
}

func TestStore_FiveDigitVersionVisible(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, ruleSetV(t, 1))
	require.NoError(t, err)

	// A long-lived profile eventually outgrows the zero-padded width.
	big := ruleSetV(t, 10000)
	payload, err := json.Marshal(big)
	require.NoError(t, err)
	path := filepath.Join(s.Dir(), "cosmetics", "v10000.json")
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	infos, err := s.ListVersions(ctx, "cosmetics")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, 10000, infos[1].Version)

	latest, err := s.Load(ctx, "cosmetics", profile.LatestVersion)
	require.NoError(t, err)
	assert.Equal(t, 10000, latest.Version)
}

func TestStore_RejectsPathTraversalNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "..", "../escape", "a/b", `a\b`} {
		_, err := s.Load(ctx, name, profile.LatestVersion)
		require.Error(t, err, "name %q", name)
		assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest), "name %q", name)

		_, err = s.ListVersions(ctx, name)
		require.Error(t, err, "name %q", name)

		rs := ruleSetV(t, 1)
		rs.Name = name
		_, err = s.Save(ctx, rs)
		require.Error(t, err, "name %q", name)
		assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest), "name %q", name)
	}

	// Nothing outside the store directory was created.
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save(context.Background(), ruleSetV(t, 1))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(s.Dir(), "cosmetics"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "v0001.json", entries[0].Name())
}
