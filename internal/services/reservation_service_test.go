package services

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stayforge/hotel-backend/internal/database"
	"github.com/stayforge/hotel-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*ReservationService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := NewReservationService(
		sqlxDB,
		database.NewReservationRepository(sqlxDB),
		database.NewRateRepository(sqlxDB),
		database.NewAddonRepository(sqlxDB),
		database.NewRoomRepository(sqlxDB),
		database.NewParkingRepository(sqlxDB),
		database.NewPricingRuleRepository(sqlxDB),
		database.NewPlanRepository(sqlxDB),
		90,
		logger,
	)

	return svc, mock
}

func reservationRow(id uuid.UUID, status models.ReservationStatus, people int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "hotel_id", "client_id", "check_in", "check_out", "number_of_people",
		"status", "type", "payment_timing", "comment", "created_at", "updated_at",
	}).AddRow(
		id, 1, 5, now, now.AddDate(0, 0, 2), people,
		status, models.ReservationTypeDirect, nil, nil, now, now,
	)
}

func detailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "reservation_id", "room_id", "stay_date", "plan_id", "hotel_plan_id",
		"plan_type", "number_of_people", "price", "cancelled", "billable",
		"created_at", "updated_at",
	})
}

func rateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "reservation_detail_id", "pricing_rule_id", "adjustment_type",
		"adjustment_value", "tax_type_id", "tax_rate", "amount",
		"include_in_cancel_fee", "created_at",
	})
}

func TestCreateHold_ExplicitRoom(t *testing.T) {
	svc, mock := newTestService(t)

	roomID := int64(101)
	planID := int64(3)
	now := time.Now()
	checkIn := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, time.July, 26, 0, 0, 0, 0, time.UTC)

	// plan type comes from the catalog when the request omits it
	mock.ExpectQuery("SELECT id, name, plan_type FROM plans").
		WithArgs(planID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "plan_type"}).
			AddRow(planID, "Standard", "per_room"))
	mock.ExpectBegin()
	// lock the requested room and verify capacity/occupancy
	mock.ExpectQuery("SELECT id FROM rooms").
		WithArgs(roomID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(roomID))
	mock.ExpectQuery("SELECT id, hotel_id, name, capacity").
		WithArgs(roomID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "hotel_id", "name", "capacity", "display_order", "created_at", "updated_at",
		}).AddRow(roomID, 1, "201", 2, 1, now, now))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(roomID, checkIn, checkOut).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// reservation and its single night
	mock.ExpectQuery("INSERT INTO reservations").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectQuery("INSERT INTO reservation_details").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	// pricing: one base rule, materialized into one rate row
	mock.ExpectQuery("AND plan_id =").
		WithArgs(int64(1), checkIn, planID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "hotel_id", "plan_id", "hotel_plan_id", "adjustment_type", "adjustment_value",
			"tax_type_id", "tax_rate", "condition_type", "condition_value",
			"date_start", "date_end", "include_in_cancel_fee", "created_at", "updated_at",
		}).AddRow(
			7, 1, planID, nil, "base_rate", "9300",
			10, "0", "none", "",
			checkIn.AddDate(0, -1, 0), nil, true, now, now,
		))
	mock.ExpectExec("DELETE FROM reservation_rates").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO reservation_rates").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservation_details").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.CreateHold(&models.CreateReservationRequest{
		HotelID:        1,
		ClientID:       5,
		RoomID:         &roomID,
		CheckIn:        "2025-07-25",
		CheckOut:       "2025-07-26",
		PlanID:         &planID,
		NumberOfPeople: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReservationStatusHold, res.Status)
	assert.Equal(t, checkIn, res.CheckIn)
	assert.Equal(t, checkOut, res.CheckOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHold_RejectsInvalidDates(t *testing.T) {
	svc, _ := newTestService(t)
	planID := int64(3)

	_, err := svc.CreateHold(&models.CreateReservationRequest{
		HotelID:        1,
		ClientID:       5,
		CheckIn:        "2025-07-26",
		CheckOut:       "2025-07-25",
		PlanID:         &planID,
		NumberOfPeople: 2,
	})
	assert.ErrorIs(t, err, models.ErrInvalidDates)
}

func TestCreateHold_RejectsExcessiveRange(t *testing.T) {
	svc, _ := newTestService(t)
	planID := int64(3)

	_, err := svc.CreateHold(&models.CreateReservationRequest{
		HotelID:        1,
		ClientID:       5,
		CheckIn:        "2025-01-01",
		CheckOut:       "2026-01-01",
		PlanID:         &planID,
		NumberOfPeople: 2,
	})
	assert.ErrorIs(t, err, models.ErrTooManyNights)
}

func TestCreateHold_RejectsRoomFromAnotherHotel(t *testing.T) {
	svc, mock := newTestService(t)

	roomID := int64(101)
	planID := int64(3)
	now := time.Now()

	mock.ExpectQuery("SELECT id, name, plan_type FROM plans").
		WithArgs(planID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "plan_type"}).
			AddRow(planID, "Standard", "per_room"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM rooms").
		WithArgs(roomID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(roomID))
	// the room exists and fits, but belongs to hotel 2
	mock.ExpectQuery("SELECT id, hotel_id, name, capacity").
		WithArgs(roomID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "hotel_id", "name", "capacity", "display_order", "created_at", "updated_at",
		}).AddRow(roomID, 2, "201", 2, 1, now, now))
	mock.ExpectRollback()

	_, err := svc.CreateHold(&models.CreateReservationRequest{
		HotelID:        1,
		ClientID:       5,
		RoomID:         &roomID,
		CheckIn:        "2025-07-25",
		CheckOut:       "2025-07-26",
		PlanID:         &planID,
		NumberOfPeople: 2,
	})
	assert.ErrorIs(t, err, models.ErrRoomNotInHotel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStatus_CancelWithFee(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()
	detailID := uuid.New()
	now := time.Now()
	stay := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusConfirmed, 2))
	mock.ExpectQuery("FROM reservation_details").
		WithArgs(resID).
		WillReturnRows(detailRows().AddRow(
			detailID, resID, 101, stay, 3, nil,
			models.PlanTypePerRoom, 2, 9300, nil, true, now, now,
		))
	// only the cancel-fee rows survive into the recomputed price
	mock.ExpectQuery("FROM reservation_rates").
		WithArgs(detailID).
		WillReturnRows(rateRows().
			AddRow(uuid.New(), detailID, 7, "base_rate", "9300", 10, "0", 9300, true, now).
			AddRow(uuid.New(), detailID, 8, "percentage", "-0.22", 10, "0", -2046, false, now))
	mock.ExpectExec("UPDATE reservation_details").
		WithArgs(detailID, true, int64(9300)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservation_parking").
		WithArgs(resID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservations").
		WithArgs(resID, models.ReservationStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.ChangeStatus(resID, &models.ChangeStatusRequest{
		Status:  models.ReservationStatusCancelled,
		WithFee: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStatus_RejectsAlreadyCancelled(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusCancelled, 2))
	mock.ExpectRollback()

	err := svc.ChangeStatus(resID, &models.ChangeStatusRequest{
		Status: models.ReservationStatusConfirmed,
	})
	assert.ErrorIs(t, err, models.ErrReservationCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStatus_ConfirmRecoversFreedNight(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()
	detailID := uuid.New()
	now := time.Now()
	stay := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	cancelled := now.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusHold, 2))
	mock.ExpectQuery("FROM reservation_details").
		WithArgs(resID).
		WillReturnRows(detailRows().AddRow(
			detailID, resID, 101, stay, 3, nil,
			models.PlanTypePerRoom, 2, 2046, cancelled, true, now, now,
		))
	// the cancelled night only comes back after locking the room and
	// re-checking that nobody claimed the date in the meantime
	mock.ExpectQuery("SELECT id FROM rooms").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(101), stay, stay.AddDate(0, 0, 1), resID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("FROM reservation_rates").
		WithArgs(detailID).
		WillReturnRows(rateRows().
			AddRow(uuid.New(), detailID, 7, "base_rate", "9300", 10, "0", 9300, true, now))
	mock.ExpectExec("UPDATE reservation_details").
		WithArgs(detailID, int64(9300)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservation_details").
		WithArgs(resID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservation_parking").
		WithArgs(resID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE reservations").
		WithArgs(resID, models.ReservationStatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.ChangeStatus(resID, &models.ChangeStatusRequest{
		Status: models.ReservationStatusConfirmed,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStatus_ConfirmRejectsRetakenRoom(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()
	detailID := uuid.New()
	now := time.Now()
	stay := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	cancelled := now.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusHold, 2))
	mock.ExpectQuery("FROM reservation_details").
		WithArgs(resID).
		WillReturnRows(detailRows().AddRow(
			detailID, resID, 101, stay, 3, nil,
			models.PlanTypePerRoom, 2, 2046, cancelled, true, now, now,
		))
	mock.ExpectQuery("SELECT id FROM rooms").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	// another reservation holds the room on that date: the whole
	// confirmation rolls back, no detail is touched
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(101), stay, stay.AddDate(0, 0, 1), resID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := svc.ChangeStatus(resID, &models.ChangeStatusRequest{
		Status: models.ReservationStatusConfirmed,
	})
	assert.ErrorIs(t, err, models.ErrNoResourceAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStatus_CheckInRequiresConfirmable(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusHold, 2))
	mock.ExpectRollback()

	err := svc.ChangeStatus(resID, &models.ChangeStatusRequest{
		Status: models.ReservationStatusCheckedIn,
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelDetail_LastNightCancelsReservation(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()
	detailID := uuid.New()
	now := time.Now()
	stay := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservation_details").
		WithArgs(detailID).
		WillReturnRows(detailRows().AddRow(
			detailID, resID, 101, stay, 3, nil,
			models.PlanTypePerRoom, 2, 9300, nil, true, now, now,
		))
	// fee-less cancel keeps the recorded price and drops billable
	mock.ExpectExec("UPDATE reservation_details").
		WithArgs(detailID, false, int64(9300)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS count, MIN").
		WithArgs(resID).
		WillReturnRows(sqlmock.NewRows([]string{"count", "min_date", "max_date"}).
			AddRow(0, nil, nil))
	// zero active nights: the reservation cancels as a whole
	mock.ExpectExec("UPDATE reservation_parking").
		WithArgs(resID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE reservations").
		WithArgs(resID, models.ReservationStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.CancelDetail(detailID, false)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecoverDetail_RejectsActiveDetail(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()
	detailID := uuid.New()
	now := time.Now()
	stay := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservation_details").
		WithArgs(detailID).
		WillReturnRows(detailRows().AddRow(
			detailID, resID, 101, stay, 3, nil,
			models.PlanTypePerRoom, 2, 9300, nil, true, now, now,
		))
	mock.ExpectRollback()

	err := svc.RecoverDetail(detailID)
	assert.ErrorIs(t, err, models.ErrDetailNotCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecoverDetail_RoomTakenMeanwhile(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()
	detailID := uuid.New()
	now := time.Now()
	stay := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	cancelled := now.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservation_details").
		WithArgs(detailID).
		WillReturnRows(detailRows().AddRow(
			detailID, resID, 101, stay, 3, nil,
			models.PlanTypePerRoom, 2, 9300, cancelled, true, now, now,
		))
	mock.ExpectQuery("FROM reservations").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusConfirmed, 2))
	// the room lock comes first so concurrent holds serialize on the row
	mock.ExpectQuery("SELECT id FROM rooms").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(101), stay, stay.AddDate(0, 0, 1), resID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := svc.RecoverDetail(detailID)
	assert.ErrorIs(t, err, models.ErrNoResourceAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func pricingRuleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "hotel_id", "plan_id", "hotel_plan_id", "adjustment_type", "adjustment_value",
		"tax_type_id", "tax_rate", "condition_type", "condition_value",
		"date_start", "date_end", "include_in_cancel_fee", "created_at", "updated_at",
	})
}

func TestMoveStay_ShiftsLatestNightFirst(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()
	firstNight := uuid.New()
	secondNight := uuid.New()
	now := time.Now()
	july25 := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	july26 := july25.AddDate(0, 0, 1)
	july27 := july25.AddDate(0, 0, 2)
	july28 := july25.AddDate(0, 0, 3)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusConfirmed, 2))
	mock.ExpectQuery("FROM reservation_details").
		WithArgs(resID, int64(101)).
		WillReturnRows(detailRows().
			AddRow(firstNight, resID, 101, july25, 3, nil,
				models.PlanTypePerRoom, 2, 9300, nil, true, now, now).
			AddRow(secondNight, resID, 101, july26, 3, nil,
				models.PlanTypePerRoom, 2, 9300, nil, true, now, now))
	mock.ExpectQuery("SELECT COUNT\\(DISTINCT room_id\\)").
		WithArgs(resID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id FROM rooms").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(101), july26, july28, resID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// shifting forward must start from the latest night so no two rows
	// ever hold the same room/date at once
	mock.ExpectExec("UPDATE reservation_details").
		WithArgs(secondNight, july27).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("AND plan_id =").
		WithArgs(int64(1), july27, int64(3)).
		WillReturnRows(pricingRuleRows())
	mock.ExpectExec("DELETE FROM reservation_rates").
		WithArgs(secondNight).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservation_details").
		WithArgs(secondNight, int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservation_details").
		WithArgs(firstNight, july26).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("AND plan_id =").
		WithArgs(int64(1), july26, int64(3)).
		WillReturnRows(pricingRuleRows())
	mock.ExpectExec("DELETE FROM reservation_rates").
		WithArgs(firstNight).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservation_details").
		WithArgs(firstNight, int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS count, MIN").
		WithArgs(resID).
		WillReturnRows(sqlmock.NewRows([]string{"count", "min_date", "max_date"}).
			AddRow(2, july26, july27))
	mock.ExpectExec("UPDATE reservations").
		WithArgs(resID, july26, july28).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := svc.MoveStay(resID, &models.MoveStayRequest{
		RoomID:      101,
		NewCheckIn:  "2025-07-26",
		NewCheckOut: "2025-07-28",
	})
	require.NoError(t, err)
	assert.Equal(t, resID, resp.ReservationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveStay_SplitsRoomIntoNewReservation(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()
	detailID := uuid.New()
	now := time.Now()
	july25 := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	july26 := july25.AddDate(0, 0, 1)
	july27 := july25.AddDate(0, 0, 2)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusConfirmed, 4))
	mock.ExpectQuery("FROM reservation_details").
		WithArgs(resID, int64(102)).
		WillReturnRows(detailRows().AddRow(
			detailID, resID, 102, july25, 3, nil,
			models.PlanTypePerRoom, 1, 9300, nil, true, now, now,
		))
	// a second room stays behind, so the moved room splits off
	mock.ExpectQuery("SELECT COUNT\\(DISTINCT room_id\\)").
		WithArgs(resID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("INSERT INTO reservations").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("UPDATE reservation_details").
		WithArgs(detailID, sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// the untouched rooms keep the remaining headcount
	mock.ExpectExec("UPDATE reservations").
		WithArgs(resID, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id FROM rooms").
		WithArgs(int64(102)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(102))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(102), july25, july26, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// same night count, same dates: nothing to shift
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS count, MIN").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "min_date", "max_date"}).
			AddRow(1, july25, july25))
	mock.ExpectExec("UPDATE reservations").
		WithArgs(sqlmock.AnyArg(), july25, july26).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS count, MIN").
		WithArgs(resID).
		WillReturnRows(sqlmock.NewRows([]string{"count", "min_date", "max_date"}).
			AddRow(2, july25, july26))
	mock.ExpectExec("UPDATE reservations").
		WithArgs(resID, july25, july27).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := svc.MoveStay(resID, &models.MoveStayRequest{
		RoomID:      102,
		NewCheckIn:  "2025-07-25",
		NewCheckOut: "2025-07-26",
	})
	require.NoError(t, err)
	assert.NotEqual(t, resID, resp.ReservationID)
	assert.Equal(t, "stay moved into split reservation", resp.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveStay_SplitRejectsExhaustedHeadcount(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()
	detailID := uuid.New()
	now := time.Now()
	july25 := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusConfirmed, 2))
	mock.ExpectQuery("FROM reservation_details").
		WithArgs(resID, int64(102)).
		WillReturnRows(detailRows().AddRow(
			detailID, resID, 102, july25, 3, nil,
			models.PlanTypePerRoom, 2, 9300, nil, true, now, now,
		))
	mock.ExpectQuery("SELECT COUNT\\(DISTINCT room_id\\)").
		WithArgs(resID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, err := svc.MoveStay(resID, &models.MoveStayRequest{
		RoomID:      102,
		NewCheckIn:  "2025-07-25",
		NewCheckOut: "2025-07-26",
	})
	assert.ErrorIs(t, err, models.ErrNonPositiveHeadcount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeGuestCount_RejectsBeforeAnyWrite(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()
	detailID := uuid.New()
	now := time.Now()
	stay := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusConfirmed, 3))
	// one night would drop to zero guests: no UPDATE may run
	mock.ExpectQuery("FROM reservation_details").
		WithArgs(resID).
		WillReturnRows(detailRows().AddRow(
			detailID, resID, 101, stay, 3, nil,
			models.PlanTypePerRoom, 1, 9300, nil, true, now, now,
		))
	mock.ExpectRollback()

	err := svc.ChangeGuestCount(resID, -1)
	assert.ErrorIs(t, err, models.ErrNonPositiveHeadcount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeGuestCount_RejectsZeroTotal(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusConfirmed, 2))
	mock.ExpectRollback()

	err := svc.ChangeGuestCount(resID, -2)
	assert.ErrorIs(t, err, models.ErrNonPositiveHeadcount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignParking_NoSpotAvailable(t *testing.T) {
	svc, mock := newTestService(t)

	resID := uuid.New()
	dateFrom := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	dateTo := time.Date(2025, time.July, 27, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").
		WithArgs(resID).
		WillReturnRows(reservationRow(resID, models.ReservationStatusConfirmed, 2))
	mock.ExpectQuery("FOR UPDATE OF s SKIP LOCKED").
		WithArgs(int64(1), dateFrom, dateTo).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.AssignParking(resID, &models.AssignParkingRequest{
		DateFrom:      "2025-07-25",
		DateTo:        "2025-07-27",
		PricePerNight: 1000,
	})
	assert.ErrorIs(t, err, models.ErrNoResourceAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
