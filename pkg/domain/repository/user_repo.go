package repository

import (
	"context"

	"github.com/probelab/probelab-app/pkg/domain/model"
)

// UserRepository stores accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Count(ctx context.Context) (int, error)
}

// SettingRepository stores small key/value settings such as the public ID
// seed.
type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
