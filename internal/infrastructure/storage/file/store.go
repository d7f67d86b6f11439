// Package file persists profile versions as JSON files under one directory
// per profile.  The store is append-only: saving writes a new version file
// and never touches earlier ones, so any historical version can be read
// back byte for byte.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/wucy1/ProDocuX/internal/domain/profile"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/errors"
)

var versionFileRe = regexp.MustCompile(`^v(\d+)\.json$`)

// Store is a file-backed profile.Repository.
type Store struct {
	dir    string
	logger logging.Logger

	// mu guards directory listing against concurrent saves of the same
	// profile from this process; cross-process serialization is the
	// application lock's job.
	mu sync.Mutex
}

// NewStore creates the base directory if needed and returns a Store.
func NewStore(dir string, logger logging.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.InvalidParam("profile store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(errors.ErrCodeStorageError, "cannot create profile store directory").WithCause(err)
	}
	return &Store{dir: dir, logger: logger.Named("profile-store")}, nil
}

// Dir returns the store's base directory.
func (s *Store) Dir() string { return s.dir }

// validateName rejects profile names that would escape the store
// directory or collide with path syntax.
func validateName(name string) error {
	if name == "" {
		return errors.InvalidParam("profile name is required")
	}
	if name != filepath.Base(name) || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return errors.InvalidParam("profile name must not contain path separators").WithDetail(name)
	}
	return nil
}

// Load implements profile.Repository.
func (s *Store) Load(ctx context.Context, name string, version int) (*profile.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if version == profile.LatestVersion {
		versions, err := s.ListVersions(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			return nil, errors.NotFound("profile has no stored versions").WithDetail(name)
		}
		version = versions[len(versions)-1].Version
	}

	payload, err := os.ReadFile(s.versionPath(name, version))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeProfileVersionInvalid, "profile version not stored").
			WithDetail(fmt.Sprintf("%s v%d", name, version))
	}
	if err != nil {
		return nil, errors.New(errors.ErrCodeStorageError, "cannot read profile version").WithCause(err)
	}

	var rs profile.RuleSet
	if err := json.Unmarshal(payload, &rs); err != nil {
		return nil, errors.New(errors.ErrCodeProfileStoreCorrupted, "stored profile is not valid JSON").
			WithDetail(s.versionPath(name, version)).WithCause(err)
	}
	return &rs, nil
}

// Save implements profile.Repository.  The version file is written to a
// temporary name in the same directory and then renamed into place, so a
// crash mid-write never leaves a readable but truncated version behind.
func (s *Store) Save(ctx context.Context, rs *profile.RuleSet) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if rs == nil {
		return 0, errors.InvalidParam("profile is required")
	}
	if err := validateName(rs.Name); err != nil {
		return 0, err
	}
	if rs.Version < 1 {
		return 0, errors.New(errors.ErrCodeProfileVersionInvalid, "profile version must be >= 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.profileDir(rs.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.New(errors.ErrCodeStorageError, "cannot create profile directory").WithCause(err)
	}

	final := s.versionPath(rs.Name, rs.Version)
	if _, err := os.Stat(final); err == nil {
		return 0, errors.Conflict("profile version already stored").
			WithDetail(fmt.Sprintf("%s v%d", rs.Name, rs.Version))
	}

	payload, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return 0, errors.New(errors.ErrCodeSerialization, "cannot encode profile").WithCause(err)
	}

	tmp, err := os.CreateTemp(dir, ".v*.tmp")
	if err != nil {
		return 0, errors.New(errors.ErrCodeProfileSaveFailed, "cannot create temp file").WithCause(err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, errors.New(errors.ErrCodeProfileSaveFailed, "cannot write profile").WithCause(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, errors.New(errors.ErrCodeProfileSaveFailed, "cannot flush profile").WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, errors.New(errors.ErrCodeProfileSaveFailed, "cannot close temp file").WithCause(err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return 0, errors.New(errors.ErrCodeProfileSaveFailed, "cannot commit profile version").WithCause(err)
	}

	s.logger.Info("profile version saved",
		logging.String("profile", rs.Name),
		logging.Int("version", rs.Version))
	return rs.Version, nil
}

// ListVersions implements profile.Repository.
func (s *Store) ListVersions(ctx context.Context, name string) ([]profile.VersionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.profileDir(name))
	if os.IsNotExist(err) {
		return nil, errors.NotFound("profile not found").WithDetail(name)
	}
	if err != nil {
		return nil, errors.New(errors.ErrCodeStorageError, "cannot list profile versions").WithCause(err)
	}

	var versions []profile.VersionInfo
	for _, e := range entries {
		m := versionFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, _ := strconv.Atoi(m[1])
		info := profile.VersionInfo{Version: v}
		if fi, err := e.Info(); err == nil {
			info.SavedAt = fi.ModTime().UTC()
		}
		if rs, err := s.Load(ctx, name, v); err == nil {
			info.RuleCount = len(rs.Rules)
		}
		versions = append(versions, info)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	return versions, nil
}

func (s *Store) profileDir(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) versionPath(name string, version int) string {
	return filepath.Join(s.profileDir(name), fmt.Sprintf("v%04d.json", version))
}
