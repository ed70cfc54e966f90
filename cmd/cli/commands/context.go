package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/internal/config"
	"github.com/jakechorley/care-shifts/pkg/core/identity"
	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/db"
	"github.com/jakechorley/care-shifts/pkg/utils/clock"
)

// Migrator is implemented by stores that carry a schema
type Migrator interface {
	RunMigrations(ctx context.Context) ([]string, error)
}

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Database db.Database
	Migrator Migrator // nil for the memory store
	Logger   *zap.Logger
	Ctx      context.Context
	Clock    clock.Clock
	Verifier *identity.Verifier
	Location *time.Location

	// Actor is the profile resolved from the session token, nil until login
	Actor *model.Profile
}

// RequireActor returns the logged-in profile or an error explaining how to log in
func (a *AppContext) RequireActor() (*model.Profile, error) {
	if a.Actor == nil {
		return nil, fmt.Errorf("not logged in: pass --token or set CARE_SHIFTS_TOKEN")
	}
	return a.Actor, nil
}
