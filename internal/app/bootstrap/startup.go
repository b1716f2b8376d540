// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/waffle/config"
	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. SlotDesk
// seeds the bootstrap admin account here when one is configured; without it
// a fresh deployment has no account that can reach the admin routes.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail != "" && appCfg.AdminPassword != "" {
		if err := SeedAdmin(ctx, deps.MongoDatabase, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
			return fmt.Errorf("seeding admin account: %w", err)
		}
	}

	logger.Info("slotdesk startup complete",
		zap.String("database", appCfg.MongoDatabase))
	return nil
}

// SeedAdmin creates the bootstrap admin account if no account with the
// given email exists yet. The seed is idempotent: an existing account is
// left untouched (its password is never rewritten), and a concurrent
// insert losing the unique-index race counts as already seeded.
func SeedAdmin(ctx context.Context, db *mongo.Database, email, password string, logger *zap.Logger) error {
	users := userstore.New(db)

	existing, err := users.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			logger.Warn("bootstrap admin email belongs to a non-admin account, leaving it unchanged",
				zap.String("email", existing.Email),
				zap.String("role", existing.Role))
		}
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	u, err := users.Create(ctx, "Administrator", email, password, models.RoleAdmin, "")
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("seeded bootstrap admin account", zap.String("email", u.Email))
	return nil
}
