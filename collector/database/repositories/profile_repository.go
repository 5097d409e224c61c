package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/pockettcg/collector/collector/database/models"
)

const defaultQueryTimeout = 10 * time.Second

// ErrProfileNotFound reports a credential or username lookup with no match.
var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	FindByCredentials(ctx context.Context, username, password string) (*models.Profile, error)
	FindByUsername(ctx context.Context, username string) (*models.Profile, error)
}

type profileRepository struct {
	db *bun.DB
}

func NewProfileRepository(db *bun.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	profile.CreatedAt = time.Now()
	profile.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().Model(profile).Exec(ctx)
	return err
}

func (r *profileRepository) FindByCredentials(ctx context.Context, username, password string) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	profile := new(models.Profile)
	err := r.db.NewSelect().
		Model(profile).
		Where("username = ? AND password = ?", username, password).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile by credentials: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) FindByUsername(ctx context.Context, username string) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	profile := new(models.Profile)
	err := r.db.NewSelect().
		Model(profile).
		Where("username = ?", username).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile by username: %w", err)
	}
	return profile, nil
}
