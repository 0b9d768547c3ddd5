package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayforge/hotel-backend/internal/models"
)

// ParkingRepository handles parking spot inventory and claims
type ParkingRepository struct {
	db *sqlx.DB
}

// NewParkingRepository creates a new ParkingRepository
func NewParkingRepository(db *sqlx.DB) *ParkingRepository {
	return &ParkingRepository{db: db}
}

// ListByHotel retrieves all parking spots of a hotel in assignment order
func (r *ParkingRepository) ListByHotel(hotelID int64) ([]models.ParkingSpot, error) {
	query := `
		SELECT id, hotel_id, name, display_order, created_at, updated_at
		FROM parking_spots
		WHERE hotel_id = $1
		ORDER BY display_order, id
	`

	spots := []models.ParkingSpot{}
	if err := r.db.Select(&spots, query, hotelID); err != nil {
		return nil, fmt.Errorf("failed to list parking spots: %w", err)
	}

	return spots, nil
}

// FindAvailable returns the spots with no non-cancelled claim overlapping
// [dateFrom, dateTo), in assignment order
func (r *ParkingRepository) FindAvailable(hotelID int64, dateFrom, dateTo time.Time) ([]models.ParkingSpot, error) {
	query := `
		SELECT s.id, s.hotel_id, s.name, s.display_order, s.created_at, s.updated_at
		FROM parking_spots s
		WHERE s.hotel_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM reservation_parking p
			WHERE p.parking_spot_id = s.id
			  AND p.cancelled IS NULL
			  AND p.date_from < $3
			  AND p.date_to > $2
		  )
		ORDER BY s.display_order, s.id
	`

	spots := []models.ParkingSpot{}
	if err := r.db.Select(&spots, query, hotelID, dateFrom, dateTo); err != nil {
		return nil, fmt.Errorf("failed to find available parking spots: %w", err)
	}

	return spots, nil
}

// LockAndClaim locks the first free, unlocked spot inside the caller's
// transaction and inserts the claim row. Returns ErrNoResourceAvailable
// when every candidate is occupied or locked by a concurrent transaction.
func (r *ParkingRepository) LockAndClaim(tx *sqlx.Tx, hotelID int64, reservationID uuid.UUID, dateFrom, dateTo time.Time, pricePerNight int64) (*models.ReservationParking, error) {
	query := `
		SELECT s.id, s.hotel_id, s.name, s.display_order, s.created_at, s.updated_at
		FROM parking_spots s
		WHERE s.hotel_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM reservation_parking p
			WHERE p.parking_spot_id = s.id
			  AND p.cancelled IS NULL
			  AND p.date_from < $3
			  AND p.date_to > $2
		  )
		ORDER BY s.display_order, s.id
		FOR UPDATE OF s SKIP LOCKED
		LIMIT 1
	`

	var spot models.ParkingSpot
	err := tx.Get(&spot, query, hotelID, dateFrom, dateTo)
	if err == sql.ErrNoRows {
		return nil, models.ErrNoResourceAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim parking spot: %w", err)
	}

	claim := &models.ReservationParking{
		ID:            uuid.New(),
		ReservationID: reservationID,
		ParkingSpotID: spot.ID,
		DateFrom:      dateFrom,
		DateTo:        dateTo,
		PricePerNight: pricePerNight,
	}

	insert := `
		INSERT INTO reservation_parking (
			id, reservation_id, parking_spot_id, date_from, date_to, price_per_night
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err = tx.QueryRow(
		insert,
		claim.ID, claim.ReservationID, claim.ParkingSpotID,
		claim.DateFrom, claim.DateTo, claim.PricePerNight,
	).Scan(&claim.CreatedAt, &claim.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert parking claim: %w", err)
	}

	return claim, nil
}

// ListByReservation retrieves all parking claims of a reservation
func (r *ParkingRepository) ListByReservation(reservationID uuid.UUID) ([]models.ReservationParking, error) {
	query := `
		SELECT id, reservation_id, parking_spot_id, date_from, date_to,
		       price_per_night, cancelled, created_at, updated_at
		FROM reservation_parking
		WHERE reservation_id = $1
		ORDER BY date_from, id
	`

	claims := []models.ReservationParking{}
	if err := r.db.Select(&claims, query, reservationID); err != nil {
		return nil, fmt.Errorf("failed to list parking claims: %w", err)
	}

	return claims, nil
}

// SetCancelledByReservation toggles the cancelled marker on every claim of
// a reservation. Used by the status-change cascade.
func (r *ParkingRepository) SetCancelledByReservation(tx *sqlx.Tx, reservationID uuid.UUID, cancelled bool) error {
	var query string
	if cancelled {
		query = `
			UPDATE reservation_parking
			SET cancelled = NOW(), updated_at = NOW()
			WHERE reservation_id = $1 AND cancelled IS NULL
		`
	} else {
		query = `
			UPDATE reservation_parking
			SET cancelled = NULL, updated_at = NOW()
			WHERE reservation_id = $1 AND cancelled IS NOT NULL
		`
	}

	if _, err := tx.Exec(query, reservationID); err != nil {
		return fmt.Errorf("failed to update parking claims: %w", err)
	}

	return nil
}

// Release cancels a single claim
func (r *ParkingRepository) Release(tx *sqlx.Tx, claimID uuid.UUID) error {
	result, err := tx.Exec(`
		UPDATE reservation_parking
		SET cancelled = NOW(), updated_at = NOW()
		WHERE id = $1 AND cancelled IS NULL
	`, claimID)
	if err != nil {
		return fmt.Errorf("failed to release parking claim: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("parking claim not found")
	}

	return nil
}
