package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/caregiver-rota/pkg/core/model"
)

// RosterClient fetches pages of the remote caregiver roster
type RosterClient interface {
	FetchCaregivers(ctx context.Context, page int) ([]model.Caregiver, error)
}

// SyncCaregiversStore defines the database operations needed to sync the roster
type SyncCaregiversStore interface {
	GetCaregivers(ctx context.Context) ([]model.Caregiver, error)
	UpsertCaregivers(ctx context.Context, caregivers []model.Caregiver) error
}

// SyncCaregiversResult reports what a roster sync did
type SyncCaregiversResult struct {
	PagesFetched int
	Upserted     int
	Total        int

	// FetchErr is set when the remote roster could not be fully fetched. The local
	// roster is kept and any pages fetched before the failure are still stored.
	FetchErr error
}

// SyncCaregivers fetches roster pages 1..pages and upserts them into the store.
// A remote failure is not fatal: the local roster stays in use.
func SyncCaregivers(
	ctx context.Context,
	store SyncCaregiversStore,
	client RosterClient,
	logger *zap.Logger,
	pages int,
) (*SyncCaregiversResult, error) {
	if pages < 1 {
		pages = 1
	}
	result := &SyncCaregiversResult{}

	var fetched []model.Caregiver
	for page := 1; page <= pages; page++ {
		caregivers, err := client.FetchCaregivers(ctx, page)
		if err != nil {
			logger.Warn("Failed to fetch roster page, keeping local roster",
				zap.Int("page", page),
				zap.Error(err))
			result.FetchErr = fmt.Errorf("failed to fetch roster page %d: %w", page, err)
			break
		}
		result.PagesFetched++
		fetched = append(fetched, caregivers...)
	}

	if len(fetched) > 0 {
		if err := store.UpsertCaregivers(ctx, fetched); err != nil {
			return nil, fmt.Errorf("failed to store caregivers: %w", err)
		}
		result.Upserted = len(fetched)
	}

	local, err := store.GetCaregivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local roster: %w", err)
	}
	result.Total = len(local)

	if result.Total == 0 && result.FetchErr != nil {
		return result, fmt.Errorf("no caregivers available: %w", result.FetchErr)
	}

	logger.Info("Caregiver roster synced",
		zap.Int("pages", result.PagesFetched),
		zap.Int("upserted", result.Upserted),
		zap.Int("total", result.Total),
		zap.Bool("fell_back", result.FetchErr != nil))

	return result, nil
}
