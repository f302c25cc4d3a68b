package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/probelab/probelab-app/internal/infra/persistence/database"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
)

type userRepository struct {
	db     *sql.DB
	driver string
}

// NewUserRepository builds the SQL-backed account repository.
func NewUserRepository(db *sql.DB, driver string) repository.UserRepository {
	return &userRepository{db: db, driver: driver}
}

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.GroupID, &u.Status, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	id, err := database.InsertID(ctx, r.db, r.driver,
		`INSERT INTO users (email, password_hash, group_id, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.GroupID, user.Status, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	user.ID = id
	return user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, database.Rebind(r.driver,
		`SELECT id, email, password_hash, group_id, status, created_at FROM users WHERE id = ?`), id)
	return scanUser(row)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, database.Rebind(r.driver,
		`SELECT id, email, password_hash, group_id, status, created_at FROM users WHERE email = ?`), email)
	return scanUser(row)
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

type settingRepository struct {
	db     *sql.DB
	driver string
}

// NewSettingRepository builds the SQL-backed key/value settings store.
func NewSettingRepository(db *sql.DB, driver string) repository.SettingRepository {
	return &settingRepository{db: db, driver: driver}
}

func (r *settingRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, database.Rebind(r.driver,
		`SELECT setting_value FROM settings WHERE setting_key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	return value, err
}

func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	var query string
	if r.driver == "mysql" {
		query = `INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value)`
	} else {
		query = `INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)
			ON CONFLICT (setting_key) DO UPDATE SET setting_value = excluded.setting_value`
	}
	_, err := r.db.ExecContext(ctx, database.Rebind(r.driver, query), key, value)
	return err
}
