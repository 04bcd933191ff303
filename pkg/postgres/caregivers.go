package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jakechorley/caregiver-rota/pkg/core/model"
)

// GetCaregivers retrieves every caregiver ordered by id
func (db *DB) GetCaregivers(ctx context.Context) ([]model.Caregiver, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, first_name, last_name, picture_url
		FROM caregiver
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query caregivers: %w", err)
	}
	defer rows.Close()

	var caregivers []model.Caregiver
	for rows.Next() {
		var c model.Caregiver
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.PictureURL); err != nil {
			return nil, fmt.Errorf("failed to scan caregiver: %w", err)
		}
		caregivers = append(caregivers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating caregivers: %w", err)
	}

	return caregivers, nil
}

// GetCaregiversByIDs retrieves the caregivers with the given ids keyed by id
func (db *DB) GetCaregiversByIDs(ctx context.Context, ids []string) (map[string]model.Caregiver, error) {
	result := make(map[string]model.Caregiver, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, first_name, last_name, picture_url
		FROM caregiver
		WHERE id IN (`+strings.Join(placeholders, ", ")+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query caregivers by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Caregiver
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.PictureURL); err != nil {
			return nil, fmt.Errorf("failed to scan caregiver: %w", err)
		}
		result[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating caregivers: %w", err)
	}

	return result, nil
}

// UpsertCaregivers inserts new caregivers and refreshes the details of existing ones
func (db *DB) UpsertCaregivers(ctx context.Context, caregivers []model.Caregiver) error {
	if len(caregivers) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range caregivers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO caregiver (id, first_name, last_name, picture_url)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET first_name = EXCLUDED.first_name,
			    last_name = EXCLUDED.last_name,
			    picture_url = EXCLUDED.picture_url
		`, c.ID, c.FirstName, c.LastName, c.PictureURL)
		if err != nil {
			return fmt.Errorf("failed to upsert caregiver %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AllCaregiverIDs returns every caregiver id in ascending order
func (db *DB) AllCaregiverIDs(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM caregiver ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query caregiver ids: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}
