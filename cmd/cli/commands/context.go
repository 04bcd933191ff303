package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/caregiver-rota/internal/config"
	"github.com/jakechorley/caregiver-rota/pkg/clients/rosterclient"
	"github.com/jakechorley/caregiver-rota/pkg/core/scheduler"
	"github.com/jakechorley/caregiver-rota/pkg/core/services"
	"github.com/jakechorley/caregiver-rota/pkg/db"
	"github.com/jakechorley/caregiver-rota/pkg/postgres"
)

const dateLayout = "2006-01-02"

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg          *config.Config
	Database     db.Database
	Postgres     *postgres.DB // nil in --memory mode
	Layout       services.DayLayout
	Scheduler    *scheduler.Scheduler
	RosterClient *rosterclient.Client
	Logger       *zap.Logger
	Ctx          context.Context
}

// ParseDate parses a YYYY-MM-DD argument in the configured time zone
func (app *AppContext) ParseDate(raw string) (time.Time, error) {
	date, err := time.ParseInLocation(dateLayout, raw, app.Layout.Calendar.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be formatted as YYYY-MM-DD: %w", err)
	}
	return date, nil
}
