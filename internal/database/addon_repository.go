package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayforge/hotel-backend/internal/models"
)

// AddonRepository handles reservation addon line items. Addons have their
// own lifecycle, independent of the materialized rate rows.
type AddonRepository struct {
	db *sqlx.DB
}

// NewAddonRepository creates a new AddonRepository
func NewAddonRepository(db *sqlx.DB) *AddonRepository {
	return &AddonRepository{db: db}
}

// Create attaches an addon to a detail
func (r *AddonRepository) Create(tx *sqlx.Tx, addon *models.ReservationAddon) error {
	if addon.ID == uuid.Nil {
		addon.ID = uuid.New()
	}

	query := `
		INSERT INTO reservation_addons (
			id, reservation_detail_id, addon_id, quantity, unit_price, tax_rate
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(
		query,
		addon.ID, addon.DetailID, addon.AddonID, addon.Quantity, addon.UnitPrice, addon.TaxRate,
	).Scan(&addon.CreatedAt, &addon.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reservation addon: %w", err)
	}

	return nil
}

// Delete removes an addon line item
func (r *AddonRepository) Delete(tx *sqlx.Tx, addonID uuid.UUID) error {
	result, err := tx.Exec(`DELETE FROM reservation_addons WHERE id = $1`, addonID)
	if err != nil {
		return fmt.Errorf("failed to delete reservation addon: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("reservation addon not found")
	}

	return nil
}

// ListByDetail retrieves the addons attached to a detail
func (r *AddonRepository) ListByDetail(detailID uuid.UUID) ([]models.ReservationAddon, error) {
	query := `
		SELECT id, reservation_detail_id, addon_id, quantity, unit_price,
		       tax_rate, created_at, updated_at
		FROM reservation_addons
		WHERE reservation_detail_id = $1
		ORDER BY created_at, id
	`

	addons := []models.ReservationAddon{}
	if err := r.db.Select(&addons, query, detailID); err != nil {
		return nil, fmt.Errorf("failed to list reservation addons: %w", err)
	}

	return addons, nil
}

// CopyToDetail duplicates every addon from one detail onto another (new
// nights created from a template during a range extension)
func (r *AddonRepository) CopyToDetail(tx *sqlx.Tx, fromDetailID, toDetailID uuid.UUID) error {
	_, err := tx.Exec(`
		INSERT INTO reservation_addons (
			id, reservation_detail_id, addon_id, quantity, unit_price, tax_rate
		)
		SELECT gen_random_uuid(), $2, addon_id, quantity, unit_price, tax_rate
		FROM reservation_addons
		WHERE reservation_detail_id = $1
	`, fromDetailID, toDetailID)
	if err != nil {
		return fmt.Errorf("failed to copy reservation addons: %w", err)
	}

	return nil
}
