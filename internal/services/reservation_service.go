package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stayforge/hotel-backend/internal/database"
	"github.com/stayforge/hotel-backend/internal/models"
	"github.com/stayforge/hotel-backend/internal/pricing"
)

// ReservationService is the reservation mutation engine. Every operation
// runs as a single transaction: a failure at any step rolls back the whole
// mutation, so partial application is never observable.
type ReservationService struct {
	db           *sqlx.DB
	reservations *database.ReservationRepository
	rates        *database.RateRepository
	addons       *database.AddonRepository
	rooms        *database.RoomRepository
	parking      *database.ParkingRepository
	rules        *database.PricingRuleRepository
	plans        *database.PlanRepository
	maxNights    int
	logger       *logrus.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	db *sqlx.DB,
	reservations *database.ReservationRepository,
	rates *database.RateRepository,
	addons *database.AddonRepository,
	rooms *database.RoomRepository,
	parking *database.ParkingRepository,
	rules *database.PricingRuleRepository,
	plans *database.PlanRepository,
	maxNights int,
	logger *logrus.Logger,
) *ReservationService {
	return &ReservationService{
		db:           db,
		reservations: reservations,
		rates:        rates,
		addons:       addons,
		rooms:        rooms,
		parking:      parking,
		rules:        rules,
		plans:        plans,
		maxNights:    maxNights,
		logger:       logger,
	}
}

// resolvePlanType returns the plan type to store on a detail. An explicit
// request value wins; otherwise the plan catalog decides.
func (s *ReservationService) resolvePlanType(plan models.PlanRef, requested models.PlanType) (models.PlanType, error) {
	if requested != "" {
		return requested, nil
	}

	if plan.IsGlobal() {
		p, err := s.plans.GetPlan(*plan.PlanID)
		if err != nil {
			return "", err
		}
		if p != nil && p.PlanType != "" {
			return p.PlanType, nil
		}
	} else {
		hp, err := s.plans.GetHotelPlan(*plan.HotelPlanID)
		if err != nil {
			return "", err
		}
		if hp != nil && hp.PlanType != "" {
			return hp.PlanType, nil
		}
	}

	return models.PlanTypePerRoom, nil
}

// nightsIn expands [checkIn, checkOut) into stay dates, enforcing the
// per-mutation night cap
func (s *ReservationService) nightsIn(checkIn, checkOut time.Time) ([]time.Time, error) {
	if !checkOut.After(checkIn) {
		return nil, models.ErrInvalidDates
	}

	nights := []time.Time{}
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
		if len(nights) > s.maxNights {
			return nil, models.ErrTooManyNights
		}
	}
	return nights, nil
}

// priceNight quotes one night and materializes its rate rows on a detail
func (s *ReservationService) priceNight(tx *sqlx.Tx, hotelID int64, d *models.ReservationDetail) error {
	rules, err := s.rules.FetchForDate(hotelID, d.PlanRef(), d.StayDate)
	if err != nil {
		return err
	}

	quote, err := pricing.QuoteFromRules(rules, d.StayDate)
	if err != nil {
		return fmt.Errorf("failed to price %s: %w", d.StayDate.Format("2006-01-02"), err)
	}

	if err := s.rates.ReplaceForDetail(tx, d.ID, quote.Lines); err != nil {
		return err
	}
	if err := s.reservations.UpdateDetailPrice(tx, d.ID, quote.Amount); err != nil {
		return err
	}
	d.Price = quote.Amount

	return nil
}

// ============================================================================
// CREATE HOLD
// ============================================================================

// CreateHold creates a reservation in hold state with one detail per night.
// The room is either the requested one (checked and locked) or the first
// free, unlocked room the allocator finds. Details stay non-billable until
// the reservation is confirmed.
func (s *ReservationService) CreateHold(req *models.CreateReservationRequest) (*models.Reservation, error) {
	checkIn, checkOut, err := parseStayDates(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	nights, err := s.nightsIn(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	plan := models.PlanRef{PlanID: req.PlanID, HotelPlanID: req.HotelPlanID}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if req.NumberOfPeople <= 0 {
		return nil, models.ErrNonPositiveHeadcount
	}

	planType, err := s.resolvePlanType(plan, req.PlanType)
	if err != nil {
		return nil, err
	}
	resType := req.Type
	if resType == "" {
		resType = models.ReservationTypeDirect
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var room *models.Room
	if req.RoomID != nil {
		if err := s.rooms.LockRoom(tx, *req.RoomID); err != nil {
			return nil, err
		}
		room, err = s.rooms.GetByID(*req.RoomID)
		if err != nil {
			return nil, err
		}
		if room == nil || room.Capacity < req.NumberOfPeople {
			return nil, models.ErrNoResourceAvailable
		}
		if room.HotelID != req.HotelID {
			return nil, models.ErrRoomNotInHotel
		}
		free, err := s.rooms.IsFree(tx, room.ID, checkIn, checkOut, nil)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, models.ErrNoResourceAvailable
		}
	} else {
		room, err = s.rooms.LockAndClaim(tx, req.HotelID, checkIn, checkOut, req.NumberOfPeople)
		if err != nil {
			return nil, err
		}
	}

	res := &models.Reservation{
		HotelID:        req.HotelID,
		ClientID:       req.ClientID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		NumberOfPeople: req.NumberOfPeople,
		Status:         models.ReservationStatusHold,
		Type:           resType,
		PaymentTiming:  req.PaymentTiming,
		Comment:        req.Comment,
	}
	if err := s.reservations.Create(tx, res); err != nil {
		return nil, err
	}

	for _, night := range nights {
		detail := &models.ReservationDetail{
			ReservationID:  res.ID,
			RoomID:         room.ID,
			StayDate:       night,
			PlanID:         plan.PlanID,
			HotelPlanID:    plan.HotelPlanID,
			PlanType:       planType,
			NumberOfPeople: req.NumberOfPeople,
			Billable:       false,
		}
		if err := s.reservations.CreateDetail(tx, detail); err != nil {
			return nil, err
		}
		if err := s.priceNight(tx, req.HotelID, detail); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"hotel_id":       req.HotelID,
		"room_id":        room.ID,
		"nights":         len(nights),
	}).Info("Reservation hold created")

	return res, nil
}

// ============================================================================
// STATUS CHANGES
// ============================================================================

// ChangeStatus transitions a reservation and cascades to its details and
// parking claims. Cancellation is terminal for the reservation itself.
func (s *ReservationService) ChangeStatus(reservationID uuid.UUID, req *models.ChangeStatusRequest) error {
	switch req.Status {
	case models.ReservationStatusCancelled, models.ReservationStatusConfirmed,
		models.ReservationStatusProvisory, models.ReservationStatusCheckedIn:
	default:
		return fmt.Errorf("unsupported target status %q", req.Status)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := s.reservations.GetByIDTx(tx, reservationID)
	if err != nil {
		return err
	}
	if res == nil {
		return models.ErrReservationNotFound
	}
	if res.IsTerminal() {
		return models.ErrReservationCancelled
	}

	switch req.Status {
	case models.ReservationStatusCancelled:
		if err := s.cancelAllDetails(tx, reservationID, req.WithFee); err != nil {
			return err
		}
		if err := s.parking.SetCancelledByReservation(tx, reservationID, true); err != nil {
			return err
		}

	case models.ReservationStatusConfirmed, models.ReservationStatusProvisory:
		if err := s.recoverAllDetails(tx, reservationID); err != nil {
			return err
		}
		if err := s.reservations.MarkActiveDetailsBillable(tx, reservationID); err != nil {
			return err
		}
		if err := s.parking.SetCancelledByReservation(tx, reservationID, false); err != nil {
			return err
		}

	case models.ReservationStatusCheckedIn:
		if res.Status != models.ReservationStatusConfirmed && res.Status != models.ReservationStatusProvisory {
			return fmt.Errorf("cannot check in from status %q", res.Status)
		}
	}

	if err := s.reservations.UpdateStatus(tx, reservationID, req.Status); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id": reservationID,
		"status":         req.Status,
		"with_fee":       req.WithFee,
	}).Info("Reservation status changed")

	return nil
}

func (s *ReservationService) cancelAllDetails(tx *sqlx.Tx, reservationID uuid.UUID, withFee bool) error {
	details, err := s.reservations.ListDetailsTx(tx, reservationID)
	if err != nil {
		return err
	}

	for _, d := range details {
		if d.IsCancelled() {
			continue
		}
		price := d.Price
		if withFee {
			rates, err := s.rates.ListByDetailTx(tx, d.ID)
			if err != nil {
				return err
			}
			price = pricing.CancelFeeFromRates(rates)
		}
		if err := s.reservations.SetDetailCancelled(tx, d.ID, withFee, price); err != nil {
			return err
		}
	}

	return nil
}

func (s *ReservationService) recoverAllDetails(tx *sqlx.Tx, reservationID uuid.UUID) error {
	details, err := s.reservations.ListDetailsTx(tx, reservationID)
	if err != nil {
		return err
	}

	for _, d := range details {
		if !d.IsCancelled() {
			continue
		}
		// A cancelled night frees its room; someone else may have claimed
		// it since. Serialize with claimers and re-check occupancy before
		// the night comes back.
		if err := s.rooms.LockRoom(tx, d.RoomID); err != nil {
			return err
		}
		free, err := s.rooms.IsFree(tx, d.RoomID, d.StayDate, d.StayDate.AddDate(0, 0, 1), &reservationID)
		if err != nil {
			return err
		}
		if !free {
			return models.ErrNoResourceAvailable
		}
		rates, err := s.rates.ListByDetailTx(tx, d.ID)
		if err != nil {
			return err
		}
		price := pricing.TotalFromRates(rates, true)
		if err := s.reservations.SetDetailRecovered(tx, d.ID, price); err != nil {
			return err
		}
	}

	return nil
}

// ============================================================================
// PER-DETAIL CANCEL / RECOVER
// ============================================================================

// CancelDetail voids one night. With a fee the price is recomputed from
// only the rate rows flagged include_in_cancel_fee and the detail stays
// billable; without a fee the detail keeps its recorded price but no
// longer counts toward revenue. Reservation bounds are re-derived; when no
// active night remains the reservation cancels as a whole.
func (s *ReservationService) CancelDetail(detailID uuid.UUID, withFee bool) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	d, err := s.reservations.GetDetailTx(tx, detailID)
	if err != nil {
		return err
	}
	if d == nil {
		return models.ErrDetailNotFound
	}
	if d.IsCancelled() {
		return models.ErrDetailAlreadyCancelled
	}

	price := d.Price
	if withFee {
		rates, err := s.rates.ListByDetailTx(tx, detailID)
		if err != nil {
			return err
		}
		price = pricing.CancelFeeFromRates(rates)
	}
	if err := s.reservations.SetDetailCancelled(tx, detailID, withFee, price); err != nil {
		return err
	}

	active, err := s.reservations.RecomputeBounds(tx, d.ReservationID)
	if err != nil {
		return err
	}
	if active == 0 {
		if err := s.parking.SetCancelledByReservation(tx, d.ReservationID, true); err != nil {
			return err
		}
		if err := s.reservations.UpdateStatus(tx, d.ReservationID, models.ReservationStatusCancelled); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"detail_id":      detailID,
		"reservation_id": d.ReservationID,
		"with_fee":       withFee,
		"price":          price,
	}).Info("Reservation detail cancelled")

	return nil
}

// RecoverDetail restores a cancelled night at its full materialized price.
// The parent reservation must still be able to support it and the room
// must not have been taken in the meantime.
func (s *ReservationService) RecoverDetail(detailID uuid.UUID) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	d, err := s.reservations.GetDetailTx(tx, detailID)
	if err != nil {
		return err
	}
	if d == nil {
		return models.ErrDetailNotFound
	}
	if !d.IsCancelled() {
		return models.ErrDetailNotCancelled
	}

	res, err := s.reservations.GetByIDTx(tx, d.ReservationID)
	if err != nil {
		return err
	}
	if res == nil {
		return models.ErrReservationNotFound
	}
	if res.IsTerminal() {
		return fmt.Errorf("cannot recover detail %s: %w", detailID, models.ErrReservationCancelled)
	}

	if err := s.rooms.LockRoom(tx, d.RoomID); err != nil {
		return err
	}
	free, err := s.rooms.IsFree(tx, d.RoomID, d.StayDate, d.StayDate.AddDate(0, 0, 1), &d.ReservationID)
	if err != nil {
		return err
	}
	if !free {
		return models.ErrNoResourceAvailable
	}

	rates, err := s.rates.ListByDetailTx(tx, detailID)
	if err != nil {
		return err
	}
	price := pricing.TotalFromRates(rates, true)
	if err := s.reservations.SetDetailRecovered(tx, detailID, price); err != nil {
		return err
	}

	if _, err := s.reservations.RecomputeBounds(tx, d.ReservationID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"detail_id":      detailID,
		"reservation_id": d.ReservationID,
		"price":          price,
	}).Info("Reservation detail recovered")

	return nil
}

// ============================================================================
// MOVE / RESIZE
// ============================================================================

// MoveStay moves and/or resizes one room's nights. When the reservation
// spans several rooms and only this room changes, the affected nights are
// split into a new reservation so the untouched rooms keep their detail
// rows and associations; the returned id is then the split's. Same night
// count shifts rows in place by a constant offset; a changed night count
// deletes rows outside the new range and creates missing nights from the
// nearest surviving night as a template.
func (s *ReservationService) MoveStay(reservationID uuid.UUID, req *models.MoveStayRequest) (*models.MutationResponse, error) {
	newCheckIn, newCheckOut, err := parseStayDates(req.NewCheckIn, req.NewCheckOut)
	if err != nil {
		return nil, err
	}
	newNights, err := s.nightsIn(newCheckIn, newCheckOut)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := s.reservations.GetByIDTx(tx, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, models.ErrReservationNotFound
	}
	if res.IsTerminal() {
		return nil, models.ErrReservationCancelled
	}

	details, err := s.reservations.ListRoomDetailsTx(tx, reservationID, req.RoomID)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, models.ErrDetailNotFound
	}

	activeRooms, err := s.reservations.CountActiveRoomsTx(tx, reservationID)
	if err != nil {
		return nil, err
	}

	targetRoomID := req.RoomID
	if req.NewRoomID != nil {
		targetRoomID = *req.NewRoomID
	}

	// Split first when other rooms must keep their continuity.
	workingID := reservationID
	if activeRooms > 1 {
		workingID, err = s.splitRoomNights(tx, res, details)
		if err != nil {
			return nil, err
		}
	}

	// Claim the target room for the new range before touching any rows.
	if err := s.rooms.LockRoom(tx, targetRoomID); err != nil {
		return nil, err
	}
	free, err := s.rooms.IsFree(tx, targetRoomID, newCheckIn, newCheckOut, &workingID)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, models.ErrNoResourceAvailable
	}

	if req.NewRoomID != nil && *req.NewRoomID != req.RoomID {
		for _, d := range details {
			if err := s.reservations.UpdateDetailRoom(tx, d.ID, targetRoomID); err != nil {
				return nil, err
			}
		}
	}

	if len(newNights) == len(details) {
		if err := s.shiftNights(tx, res.HotelID, details, newCheckIn); err != nil {
			return nil, err
		}
	} else {
		if err := s.resizeNights(tx, res.HotelID, workingID, targetRoomID, details, newNights); err != nil {
			return nil, err
		}
	}

	if _, err := s.reservations.RecomputeBounds(tx, workingID); err != nil {
		return nil, err
	}
	if workingID != reservationID {
		if _, err := s.reservations.RecomputeBounds(tx, reservationID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id": reservationID,
		"result_id":      workingID,
		"room_id":        req.RoomID,
		"target_room_id": targetRoomID,
		"new_check_in":   req.NewCheckIn,
		"new_check_out":  req.NewCheckOut,
		"split":          workingID != reservationID,
	}).Info("Reservation stay moved")

	msg := "stay moved"
	if workingID != reservationID {
		msg = "stay moved into split reservation"
	}
	return &models.MutationResponse{ReservationID: workingID, Message: msg}, nil
}

// splitRoomNights detaches one room's nights into a new reservation,
// apportioning the headcount between the original and the split
func (s *ReservationService) splitRoomNights(tx *sqlx.Tx, res *models.Reservation, details []models.ReservationDetail) (uuid.UUID, error) {
	splitPeople := details[0].NumberOfPeople
	remaining := res.NumberOfPeople - splitPeople
	if remaining <= 0 {
		return uuid.Nil, models.ErrNonPositiveHeadcount
	}

	first := details[0].StayDate
	last := details[len(details)-1].StayDate.AddDate(0, 0, 1)

	split := &models.Reservation{
		HotelID:        res.HotelID,
		ClientID:       res.ClientID,
		CheckIn:        first,
		CheckOut:       last,
		NumberOfPeople: splitPeople,
		Status:         res.Status,
		Type:           res.Type,
		PaymentTiming:  res.PaymentTiming,
		Comment:        res.Comment,
	}
	if err := s.reservations.Create(tx, split); err != nil {
		return uuid.Nil, err
	}

	for _, d := range details {
		if err := s.reservations.MoveDetailToReservation(tx, d.ID, split.ID, d.NumberOfPeople); err != nil {
			return uuid.Nil, err
		}
	}

	if err := s.reservations.UpdateHeadcount(tx, res.ID, remaining); err != nil {
		return uuid.Nil, err
	}

	return split.ID, nil
}

// shiftNights moves detail rows by a constant day offset. The processing
// order depends on the shift direction so that no intermediate state holds
// two details of the same room on the same date.
func (s *ReservationService) shiftNights(tx *sqlx.Tx, hotelID int64, details []models.ReservationDetail, newCheckIn time.Time) error {
	offset := int(newCheckIn.Sub(details[0].StayDate).Hours() / 24)
	if offset == 0 {
		return nil
	}

	ordered := make([]models.ReservationDetail, len(details))
	copy(ordered, details)
	if offset > 0 {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}

	for i := range ordered {
		d := &ordered[i]
		d.StayDate = d.StayDate.AddDate(0, 0, offset)
		if err := s.reservations.UpdateDetailDate(tx, d.ID, d.StayDate); err != nil {
			return err
		}
		if err := s.priceNight(tx, hotelID, d); err != nil {
			return err
		}
	}

	return nil
}

// resizeNights reconciles a room's detail rows with a new date range of a
// different night count: out-of-range rows are deleted and missing nights
// are created from the nearest existing night, carrying its plan,
// headcount, billable flag and guest/addon associations.
func (s *ReservationService) resizeNights(tx *sqlx.Tx, hotelID int64, reservationID uuid.UUID, roomID int64, details []models.ReservationDetail, newNights []time.Time) error {
	existing := make(map[string]models.ReservationDetail, len(details))
	for _, d := range details {
		existing[d.StayDate.Format("2006-01-02")] = d
	}

	// Create missing nights first so the template rows still exist.
	for _, night := range newNights {
		if _, ok := existing[night.Format("2006-01-02")]; ok {
			continue
		}

		template := nearestDetail(details, night)
		detail := &models.ReservationDetail{
			ReservationID:  reservationID,
			RoomID:         roomID,
			StayDate:       night,
			PlanID:         template.PlanID,
			HotelPlanID:    template.HotelPlanID,
			PlanType:       template.PlanType,
			NumberOfPeople: template.NumberOfPeople,
			Billable:       template.Billable,
		}
		if err := s.reservations.CreateDetail(tx, detail); err != nil {
			return err
		}
		if err := s.reservations.CopyGuests(tx, template.ID, detail.ID); err != nil {
			return err
		}
		if err := s.addons.CopyToDetail(tx, template.ID, detail.ID); err != nil {
			return err
		}
		if err := s.priceNight(tx, hotelID, detail); err != nil {
			return err
		}
	}

	wanted := make(map[string]bool, len(newNights))
	for _, night := range newNights {
		wanted[night.Format("2006-01-02")] = true
	}
	for _, d := range details {
		if wanted[d.StayDate.Format("2006-01-02")] {
			continue
		}
		if err := s.rates.DeleteForDetail(tx, d.ID); err != nil {
			return err
		}
		// Guest and addon rows cascade with the detail row.
		if err := s.reservations.DeleteDetail(tx, d.ID); err != nil {
			return err
		}
	}

	return nil
}

func nearestDetail(details []models.ReservationDetail, night time.Time) models.ReservationDetail {
	best := details[0]
	bestDist := absDuration(night.Sub(best.StayDate))
	for _, d := range details[1:] {
		if dist := absDuration(night.Sub(d.StayDate)); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// ============================================================================
// RECALCULATION
// ============================================================================

// ChangePlan switches every active detail to a new plan and reprices them,
// replacing each detail's materialized rate rows wholesale
func (s *ReservationService) ChangePlan(reservationID uuid.UUID, req *models.ChangePlanRequest) error {
	plan := models.PlanRef{PlanID: req.PlanID, HotelPlanID: req.HotelPlanID}
	if err := plan.Validate(); err != nil {
		return err
	}
	planType, err := s.resolvePlanType(plan, req.PlanType)
	if err != nil {
		return err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := s.reservations.GetByIDTx(tx, reservationID)
	if err != nil {
		return err
	}
	if res == nil {
		return models.ErrReservationNotFound
	}
	if res.IsTerminal() {
		return models.ErrReservationCancelled
	}

	details, err := s.reservations.ListDetailsTx(tx, reservationID)
	if err != nil {
		return err
	}

	for i := range details {
		d := &details[i]
		if d.IsCancelled() {
			continue
		}
		if err := s.reservations.UpdateDetailPlan(tx, d.ID, plan, planType); err != nil {
			return err
		}
		d.PlanID = plan.PlanID
		d.HotelPlanID = plan.HotelPlanID
		d.PlanType = planType
		if err := s.priceNight(tx, res.HotelID, d); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id": reservationID,
		"plan_id":        req.PlanID,
		"hotel_plan_id":  req.HotelPlanID,
	}).Info("Reservation plan changed")

	return nil
}

// AddAddon attaches an addon line item to a detail. Addons live outside
// the materialized rate breakdown, so the night price is left alone.
func (s *ReservationService) AddAddon(detailID uuid.UUID, req *models.AddAddonRequest) (*models.ReservationAddon, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	d, err := s.reservations.GetDetailTx(tx, detailID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, models.ErrDetailNotFound
	}
	if d.IsCancelled() {
		return nil, models.ErrDetailAlreadyCancelled
	}

	addon := &models.ReservationAddon{
		DetailID:  detailID,
		AddonID:   req.AddonID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		TaxRate:   req.TaxRate,
	}
	if err := s.addons.Create(tx, addon); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return addon, nil
}

// RemoveAddon detaches an addon line item from its detail
func (s *ReservationService) RemoveAddon(addonID uuid.UUID) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.addons.Delete(tx, addonID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ============================================================================
// GUEST COUNT
// ============================================================================

// ChangeGuestCount applies a signed delta to the reservation headcount and
// every active detail, rejecting the whole mutation before any write if
// any result would be non-positive. Named guests beyond the new headcount
// are pruned.
func (s *ReservationService) ChangeGuestCount(reservationID uuid.UUID, delta int) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := s.reservations.GetByIDTx(tx, reservationID)
	if err != nil {
		return err
	}
	if res == nil {
		return models.ErrReservationNotFound
	}
	if res.IsTerminal() {
		return models.ErrReservationCancelled
	}

	newTotal := res.NumberOfPeople + delta
	if newTotal <= 0 {
		return models.ErrNonPositiveHeadcount
	}

	details, err := s.reservations.ListDetailsTx(tx, reservationID)
	if err != nil {
		return err
	}

	// Validate every detail before the first write.
	for _, d := range details {
		if d.IsCancelled() {
			continue
		}
		if d.NumberOfPeople+delta <= 0 {
			return models.ErrNonPositiveHeadcount
		}
	}

	if err := s.reservations.UpdateHeadcount(tx, reservationID, newTotal); err != nil {
		return err
	}

	for i := range details {
		d := &details[i]
		if d.IsCancelled() {
			continue
		}
		newPeople := d.NumberOfPeople + delta
		if err := s.reservations.UpdateDetailPeople(tx, d.ID, newPeople); err != nil {
			return err
		}
		d.NumberOfPeople = newPeople

		if err := s.priceNight(tx, res.HotelID, d); err != nil {
			return err
		}

		guests, err := s.reservations.CountGuestsTx(tx, d.ID)
		if err != nil {
			return err
		}
		if guests > newPeople {
			if err := s.reservations.PruneGuests(tx, d.ID, newPeople); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id": reservationID,
		"delta":          delta,
		"headcount":      newTotal,
	}).Info("Reservation guest count changed")

	return nil
}

// ============================================================================
// PARKING
// ============================================================================

// AssignParking claims a free, unlocked parking spot for a date range
func (s *ReservationService) AssignParking(reservationID uuid.UUID, req *models.AssignParkingRequest) (*models.ReservationParking, error) {
	dateFrom, dateTo, err := parseStayDates(req.DateFrom, req.DateTo)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := s.reservations.GetByIDTx(tx, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, models.ErrReservationNotFound
	}
	if res.IsTerminal() {
		return nil, models.ErrReservationCancelled
	}

	claim, err := s.parking.LockAndClaim(tx, res.HotelID, reservationID, dateFrom, dateTo, req.PricePerNight)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id":  reservationID,
		"parking_spot_id": claim.ParkingSpotID,
		"date_from":       req.DateFrom,
		"date_to":         req.DateTo,
	}).Info("Parking spot assigned")

	return claim, nil
}

// ReleaseParking cancels a single parking claim without touching the rest
// of the reservation
func (s *ReservationService) ReleaseParking(claimID uuid.UUID) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.parking.Release(tx, claimID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithField("claim_id", claimID).Info("Parking claim released")

	return nil
}

// parseStayDates parses a check-in/check-out date pair
func parseStayDates(from, to string) (time.Time, time.Time, error) {
	checkIn, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", from, err)
	}
	checkOut, err := time.Parse("2006-01-02", to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", to, err)
	}
	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, models.ErrInvalidDates
	}
	return checkIn, checkOut, nil
}
