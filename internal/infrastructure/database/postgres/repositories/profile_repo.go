// Package repositories implements the domain persistence ports on top of
// the pgx pool.  Profiles and events are stored as JSONB payloads so the
// database rendition stays byte-compatible with the file store's.
package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wucy1/ProDocuX/internal/domain/profile"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	appErrors "github.com/wucy1/ProDocuX/pkg/errors"
)

const uniqueViolation = "23505"

// ProfileRepo is a postgres-backed profile.Repository.
type ProfileRepo struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(pool *pgxpool.Pool, logger logging.Logger) *ProfileRepo {
	return &ProfileRepo{pool: pool, logger: logger.Named("profile-repo")}
}

// Load implements profile.Repository.
func (r *ProfileRepo) Load(ctx context.Context, name string, version int) (*profile.RuleSet, error) {
	query := `SELECT payload FROM profile_versions WHERE profile_name = $1 AND version = $2`
	args := []interface{}{name, version}
	if version == profile.LatestVersion {
		query = `SELECT payload FROM profile_versions WHERE profile_name = $1
		         ORDER BY version DESC LIMIT 1`
		args = args[:1]
	}

	var payload []byte
	err := r.pool.QueryRow(ctx, query, args...).Scan(&payload)
	if err == pgx.ErrNoRows {
		if version == profile.LatestVersion {
			return nil, appErrors.NotFound("profile not found").WithDetail(name)
		}
		return nil, appErrors.New(appErrors.ErrCodeProfileVersionInvalid, "profile version not stored").
			WithDetail(name)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "profile load failed")
	}

	var rs profile.RuleSet
	if err := json.Unmarshal(payload, &rs); err != nil {
		return nil, appErrors.New(appErrors.ErrCodeProfileStoreCorrupted, "stored profile is not valid JSON").
			WithCause(err)
	}
	return &rs, nil
}

// Save implements profile.Repository.  The primary key on
// (profile_name, version) enforces append-only storage.
func (r *ProfileRepo) Save(ctx context.Context, rs *profile.RuleSet) (int, error) {
	if rs == nil || rs.Name == "" {
		return 0, appErrors.InvalidParam("profile name is required")
	}
	if rs.Version < 1 {
		return 0, appErrors.New(appErrors.ErrCodeProfileVersionInvalid, "profile version must be >= 1")
	}

	payload, err := json.Marshal(rs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "cannot encode profile")
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO profile_versions (profile_name, version, payload) VALUES ($1, $2, $3)`,
		rs.Name, rs.Version, payload)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == uniqueViolation {
			return 0, appErrors.Conflict("profile version already stored").WithDetail(rs.Name)
		}
		return 0, appErrors.Wrap(err, appErrors.ErrCodeProfileSaveFailed, "profile save failed")
	}

	r.logger.Info("profile version saved",
		logging.String("profile", rs.Name), logging.Int("version", rs.Version))
	return rs.Version, nil
}

// ListVersions implements profile.Repository.
func (r *ProfileRepo) ListVersions(ctx context.Context, name string) ([]profile.VersionInfo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT version, saved_at, jsonb_array_length(COALESCE(payload->'rules', '[]'::jsonb))
		 FROM profile_versions WHERE profile_name = $1 ORDER BY version`, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "version list failed")
	}
	defer rows.Close()

	var versions []profile.VersionInfo
	for rows.Next() {
		var v profile.VersionInfo
		if err := rows.Scan(&v.Version, &v.SavedAt, &v.RuleCount); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "version scan failed")
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "version list failed")
	}
	if len(versions) == 0 {
		return nil, appErrors.NotFound("profile not found").WithDetail(name)
	}
	return versions, nil
}
