package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayforge/hotel-backend/internal/models"
)

// ReservationRepository handles reservations, their per-night details and
// guest associations. Every mutating method takes the caller's transaction
// explicitly; the repository never opens one itself.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository creates a new ReservationRepository
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `
	id, hotel_id, client_id, check_in, check_out, number_of_people,
	status, type, payment_timing, comment, created_at, updated_at
`

const detailColumns = `
	id, reservation_id, room_id, stay_date, plan_id, hotel_plan_id, plan_type,
	number_of_people, price, cancelled, billable, created_at, updated_at
`

// ============================================================================
// RESERVATIONS
// ============================================================================

// Create inserts a new reservation
func (r *ReservationRepository) Create(tx *sqlx.Tx, res *models.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}

	query := `
		INSERT INTO reservations (
			id, hotel_id, client_id, check_in, check_out, number_of_people,
			status, type, payment_timing, comment
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(
		query,
		res.ID, res.HotelID, res.ClientID, res.CheckIn, res.CheckOut, res.NumberOfPeople,
		res.Status, res.Type, res.PaymentTiming, res.Comment,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	return nil
}

// GetByID retrieves a reservation by id
func (r *ReservationRepository) GetByID(id uuid.UUID) (*models.Reservation, error) {
	return getReservation(r.db, id)
}

// GetByIDTx retrieves a reservation inside the caller's transaction
func (r *ReservationRepository) GetByIDTx(tx *sqlx.Tx, id uuid.UUID) (*models.Reservation, error) {
	return getReservation(tx, id)
}

func getReservation(q sqlx.Queryer, id uuid.UUID) (*models.Reservation, error) {
	query := `SELECT` + reservationColumns + `FROM reservations WHERE id = $1`

	var res models.Reservation
	err := sqlx.Get(q, &res, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	return &res, nil
}

// UpdateStatus sets the reservation status
func (r *ReservationRepository) UpdateStatus(tx *sqlx.Tx, id uuid.UUID, status models.ReservationStatus) error {
	result, err := tx.Exec(`
		UPDATE reservations
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrReservationNotFound
	}

	return nil
}

// UpdateHeadcount sets the reservation headcount
func (r *ReservationRepository) UpdateHeadcount(tx *sqlx.Tx, id uuid.UUID, people int) error {
	result, err := tx.Exec(`
		UPDATE reservations
		SET number_of_people = $2, updated_at = NOW()
		WHERE id = $1
	`, id, people)
	if err != nil {
		return fmt.Errorf("failed to update reservation headcount: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrReservationNotFound
	}

	return nil
}

// RecomputeBounds re-derives check_in/check_out from the min/max active
// detail date and returns how many active details remain. With zero active
// details the bounds are left untouched; the caller decides whether the
// reservation transitions to cancelled.
func (r *ReservationRepository) RecomputeBounds(tx *sqlx.Tx, id uuid.UUID) (int, error) {
	var bounds struct {
		Count   int        `db:"count"`
		MinDate *time.Time `db:"min_date"`
		MaxDate *time.Time `db:"max_date"`
	}

	err := tx.Get(&bounds, `
		SELECT COUNT(*) AS count, MIN(stay_date) AS min_date, MAX(stay_date) AS max_date
		FROM reservation_details
		WHERE reservation_id = $1 AND cancelled IS NULL
	`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to read detail bounds: %w", err)
	}

	if bounds.Count == 0 {
		return 0, nil
	}

	checkOut := bounds.MaxDate.AddDate(0, 0, 1)
	_, err = tx.Exec(`
		UPDATE reservations
		SET check_in = $2, check_out = $3, updated_at = NOW()
		WHERE id = $1
	`, id, *bounds.MinDate, checkOut)
	if err != nil {
		return 0, fmt.Errorf("failed to update reservation bounds: %w", err)
	}

	return bounds.Count, nil
}

// ============================================================================
// DETAILS
// ============================================================================

// CreateDetail inserts a new per-night detail row
func (r *ReservationRepository) CreateDetail(tx *sqlx.Tx, d *models.ReservationDetail) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	query := `
		INSERT INTO reservation_details (
			id, reservation_id, room_id, stay_date, plan_id, hotel_plan_id,
			plan_type, number_of_people, price, cancelled, billable
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(
		query,
		d.ID, d.ReservationID, d.RoomID, d.StayDate, d.PlanID, d.HotelPlanID,
		d.PlanType, d.NumberOfPeople, d.Price, d.Cancelled, d.Billable,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reservation detail: %w", err)
	}

	return nil
}

// GetDetail retrieves a detail by id
func (r *ReservationRepository) GetDetail(id uuid.UUID) (*models.ReservationDetail, error) {
	return getDetail(r.db, id)
}

// GetDetailTx retrieves a detail inside the caller's transaction
func (r *ReservationRepository) GetDetailTx(tx *sqlx.Tx, id uuid.UUID) (*models.ReservationDetail, error) {
	return getDetail(tx, id)
}

func getDetail(q sqlx.Queryer, id uuid.UUID) (*models.ReservationDetail, error) {
	query := `SELECT` + detailColumns + `FROM reservation_details WHERE id = $1`

	var d models.ReservationDetail
	err := sqlx.Get(q, &d, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation detail: %w", err)
	}

	return &d, nil
}

// ListDetails retrieves all details of a reservation, cancelled included
func (r *ReservationRepository) ListDetails(reservationID uuid.UUID) ([]models.ReservationDetail, error) {
	return listDetails(r.db, reservationID)
}

// ListDetailsTx retrieves all details inside the caller's transaction
func (r *ReservationRepository) ListDetailsTx(tx *sqlx.Tx, reservationID uuid.UUID) ([]models.ReservationDetail, error) {
	return listDetails(tx, reservationID)
}

func listDetails(q sqlx.Queryer, reservationID uuid.UUID) ([]models.ReservationDetail, error) {
	query := `SELECT` + detailColumns + `
		FROM reservation_details
		WHERE reservation_id = $1
		ORDER BY room_id, stay_date
	`

	details := []models.ReservationDetail{}
	if err := sqlx.Select(q, &details, query, reservationID); err != nil {
		return nil, fmt.Errorf("failed to list reservation details: %w", err)
	}

	return details, nil
}

// ListRoomDetailsTx retrieves the active details of one room of a
// reservation, in stay-date order
func (r *ReservationRepository) ListRoomDetailsTx(tx *sqlx.Tx, reservationID uuid.UUID, roomID int64) ([]models.ReservationDetail, error) {
	query := `SELECT` + detailColumns + `
		FROM reservation_details
		WHERE reservation_id = $1 AND room_id = $2 AND cancelled IS NULL
		ORDER BY stay_date
	`

	details := []models.ReservationDetail{}
	if err := sqlx.Select(tx, &details, query, reservationID, roomID); err != nil {
		return nil, fmt.Errorf("failed to list room details: %w", err)
	}

	return details, nil
}

// CountActiveRoomsTx counts the distinct rooms with active details
func (r *ReservationRepository) CountActiveRoomsTx(tx *sqlx.Tx, reservationID uuid.UUID) (int, error) {
	var count int
	err := tx.Get(&count, `
		SELECT COUNT(DISTINCT room_id)
		FROM reservation_details
		WHERE reservation_id = $1 AND cancelled IS NULL
	`, reservationID)
	if err != nil {
		return 0, fmt.Errorf("failed to count active rooms: %w", err)
	}

	return count, nil
}

// UpdateDetailDate shifts one detail to a new stay date
func (r *ReservationRepository) UpdateDetailDate(tx *sqlx.Tx, detailID uuid.UUID, date time.Time) error {
	return execDetailUpdate(tx, `
		UPDATE reservation_details
		SET stay_date = $2, updated_at = NOW()
		WHERE id = $1
	`, detailID, date)
}

// UpdateDetailRoom reassigns one detail to another room
func (r *ReservationRepository) UpdateDetailRoom(tx *sqlx.Tx, detailID uuid.UUID, roomID int64) error {
	return execDetailUpdate(tx, `
		UPDATE reservation_details
		SET room_id = $2, updated_at = NOW()
		WHERE id = $1
	`, detailID, roomID)
}

// UpdateDetailPrice overwrites the denormalized night price
func (r *ReservationRepository) UpdateDetailPrice(tx *sqlx.Tx, detailID uuid.UUID, price int64) error {
	return execDetailUpdate(tx, `
		UPDATE reservation_details
		SET price = $2, updated_at = NOW()
		WHERE id = $1
	`, detailID, price)
}

// UpdateDetailPeople sets the detail headcount
func (r *ReservationRepository) UpdateDetailPeople(tx *sqlx.Tx, detailID uuid.UUID, people int) error {
	return execDetailUpdate(tx, `
		UPDATE reservation_details
		SET number_of_people = $2, updated_at = NOW()
		WHERE id = $1
	`, detailID, people)
}

// UpdateDetailPlan changes the plan reference of a detail
func (r *ReservationRepository) UpdateDetailPlan(tx *sqlx.Tx, detailID uuid.UUID, plan models.PlanRef, planType models.PlanType) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	return execDetailUpdate(tx, `
		UPDATE reservation_details
		SET plan_id = $2, hotel_plan_id = $3, plan_type = $4, updated_at = NOW()
		WHERE id = $1
	`, detailID, plan.PlanID, plan.HotelPlanID, planType)
}

// SetDetailCancelled marks a detail cancelled with the given billable flag
// and recomputed price
func (r *ReservationRepository) SetDetailCancelled(tx *sqlx.Tx, detailID uuid.UUID, billable bool, price int64) error {
	return execDetailUpdate(tx, `
		UPDATE reservation_details
		SET cancelled = NOW(), billable = $2, price = $3, updated_at = NOW()
		WHERE id = $1
	`, detailID, billable, price)
}

// SetDetailRecovered clears the cancellation marker, forces billable and
// restores the full price
func (r *ReservationRepository) SetDetailRecovered(tx *sqlx.Tx, detailID uuid.UUID, price int64) error {
	return execDetailUpdate(tx, `
		UPDATE reservation_details
		SET cancelled = NULL, billable = TRUE, price = $2, updated_at = NOW()
		WHERE id = $1
	`, detailID, price)
}

// DeleteDetail removes a detail row (range-shrink during a move)
func (r *ReservationRepository) DeleteDetail(tx *sqlx.Tx, detailID uuid.UUID) error {
	result, err := tx.Exec(`DELETE FROM reservation_details WHERE id = $1`, detailID)
	if err != nil {
		return fmt.Errorf("failed to delete reservation detail: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrDetailNotFound
	}

	return nil
}

// MoveDetailToReservation reparents a detail to another reservation with a
// new headcount (used by splits)
func (r *ReservationRepository) MoveDetailToReservation(tx *sqlx.Tx, detailID, newReservationID uuid.UUID, people int) error {
	return execDetailUpdate(tx, `
		UPDATE reservation_details
		SET reservation_id = $2, number_of_people = $3, updated_at = NOW()
		WHERE id = $1
	`, detailID, newReservationID, people)
}

// MarkActiveDetailsBillable forces billable on every non-cancelled detail
// of a reservation (confirmation cascade)
func (r *ReservationRepository) MarkActiveDetailsBillable(tx *sqlx.Tx, reservationID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE reservation_details
		SET billable = TRUE, updated_at = NOW()
		WHERE reservation_id = $1 AND cancelled IS NULL
	`, reservationID)
	if err != nil {
		return fmt.Errorf("failed to mark details billable: %w", err)
	}
	return nil
}

func execDetailUpdate(tx *sqlx.Tx, query string, args ...interface{}) error {
	result, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update reservation detail: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrDetailNotFound
	}

	return nil
}

// ============================================================================
// GUEST ASSOCIATIONS
// ============================================================================

// ListGuests retrieves the named guests attached to a detail
func (r *ReservationRepository) ListGuests(detailID uuid.UUID) ([]models.ReservationGuest, error) {
	query := `
		SELECT id, reservation_detail_id, guest_client_id, created_at
		FROM reservation_guests
		WHERE reservation_detail_id = $1
		ORDER BY created_at, id
	`

	guests := []models.ReservationGuest{}
	if err := r.db.Select(&guests, query, detailID); err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}

	return guests, nil
}

// CountGuestsTx counts the named guests attached to a detail
func (r *ReservationRepository) CountGuestsTx(tx *sqlx.Tx, detailID uuid.UUID) (int, error) {
	var count int
	err := tx.Get(&count, `
		SELECT COUNT(*) FROM reservation_guests WHERE reservation_detail_id = $1
	`, detailID)
	if err != nil {
		return 0, fmt.Errorf("failed to count guests: %w", err)
	}

	return count, nil
}

// CopyGuests duplicates every guest association from one detail to another
func (r *ReservationRepository) CopyGuests(tx *sqlx.Tx, fromDetailID, toDetailID uuid.UUID) error {
	_, err := tx.Exec(`
		INSERT INTO reservation_guests (id, reservation_detail_id, guest_client_id)
		SELECT gen_random_uuid(), $2, guest_client_id
		FROM reservation_guests
		WHERE reservation_detail_id = $1
	`, fromDetailID, toDetailID)
	if err != nil {
		return fmt.Errorf("failed to copy guests: %w", err)
	}

	return nil
}

// PruneGuests deletes guest associations beyond the first keep rows,
// newest first. Used when a headcount decrease drops below the number of
// named guests.
func (r *ReservationRepository) PruneGuests(tx *sqlx.Tx, detailID uuid.UUID, keep int) error {
	_, err := tx.Exec(`
		DELETE FROM reservation_guests
		WHERE id IN (
			SELECT id FROM reservation_guests
			WHERE reservation_detail_id = $1
			ORDER BY created_at, id
			OFFSET $2
		)
	`, detailID, keep)
	if err != nil {
		return fmt.Errorf("failed to prune guests: %w", err)
	}

	return nil
}
