package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if err := conn(ctx, r.db).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := conn(ctx, r.db).
		Where("username = ? AND deleted_at IS NULL", username).
		First(&u).Error
	if isNotFound(err) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	err := conn(ctx, r.db).Where("deleted_at IS NULL").First(&u, id).Error
	if isNotFound(err) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id uint) error {
	now := time.Now().UTC()
	return conn(ctx, r.db).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"failed_login_count": 0,
		"locked_until":       nil,
		"last_login_at":      now,
	}).Error
}

// RecordLoginFailure bumps the failure counter and locks the account for
// lockFor once it reaches lockAfter.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id uint, lockAfter int, lockFor time.Duration) error {
	db := conn(ctx, r.db)
	err := db.Model(&domain.User{}).Where("id = ?", id).
		Update("failed_login_count", gorm.Expr("failed_login_count + 1")).Error
	if err != nil {
		return err
	}
	return db.Model(&domain.User{}).
		Where("id = ? AND failed_login_count >= ?", id, lockAfter).
		Update("locked_until", time.Now().UTC().Add(lockFor)).Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return conn(ctx, r.db).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash":       hash,
		"password_changed_at": time.Now().UTC(),
	}).Error
}

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.UserProfile) error {
	return conn(ctx, r.db).Omit("User").Create(p).Error
}

// GetByUserID loads the profile with its user.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uint) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := conn(ctx, r.db).Preload("User").Where("user_id = ?", userID).First(&p).Error
	if isNotFound(err) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) SetForcePasswordChange(ctx context.Context, userID uint, force bool) error {
	return conn(ctx, r.db).Model(&domain.UserProfile{}).
		Where("user_id = ?", userID).
		Update("force_password_change", force).Error
}

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) CreateBatch(ctx context.Context, entries []*domain.AuditLog) error {
	return conn(ctx, r.db).CreateInBatches(entries, len(entries)).Error
}
