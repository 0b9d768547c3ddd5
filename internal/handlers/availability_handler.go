package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stayforge/hotel-backend/internal/database"
)

// AvailabilityHandler answers room and parking availability lookups.
// These are advisory reads; the authoritative claim happens under row
// locks inside the reservation mutations.
type AvailabilityHandler struct {
	roomRepo    *database.RoomRepository
	parkingRepo *database.ParkingRepository
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(roomRepo *database.RoomRepository, parkingRepo *database.ParkingRepository) *AvailabilityHandler {
	return &AvailabilityHandler{roomRepo: roomRepo, parkingRepo: parkingRepo}
}

func rangeFromQuery(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse("2006-01-02", c.Query("check_in"))
	if err != nil {
		badRequest(c, "check_in must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", c.Query("check_out"))
	if err != nil {
		badRequest(c, "check_out must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	if !to.After(from) {
		badRequest(c, "check_out must be after check_in")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// ListRooms handles GET /api/v1/hotels/:id/rooms
func (h *AvailabilityHandler) ListRooms(c *gin.Context) {
	hotelID, ok := hotelIDFromPath(c)
	if !ok {
		return
	}

	rooms, err := h.roomRepo.ListByHotel(hotelID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rooms": rooms,
		"total": len(rooms),
	})
}

// ListParking handles GET /api/v1/hotels/:id/parking
func (h *AvailabilityHandler) ListParking(c *gin.Context) {
	hotelID, ok := hotelIDFromPath(c)
	if !ok {
		return
	}

	spots, err := h.parkingRepo.ListByHotel(hotelID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"spots": spots,
		"total": len(spots),
	})
}

// GetAvailableRooms handles GET /api/v1/hotels/:id/rooms/available
func (h *AvailabilityHandler) GetAvailableRooms(c *gin.Context) {
	hotelID, ok := hotelIDFromPath(c)
	if !ok {
		return
	}
	checkIn, checkOut, ok := rangeFromQuery(c)
	if !ok {
		return
	}

	people := 1
	if v := c.Query("people"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(c, "people must be a positive integer")
			return
		}
		people = n
	}

	rooms, err := h.roomRepo.FindAvailable(hotelID, checkIn, checkOut, people)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rooms": rooms,
		"total": len(rooms),
	})
}

// GetAvailableParking handles GET /api/v1/hotels/:id/parking/available
func (h *AvailabilityHandler) GetAvailableParking(c *gin.Context) {
	hotelID, ok := hotelIDFromPath(c)
	if !ok {
		return
	}
	dateFrom, dateTo, ok := rangeFromQuery(c)
	if !ok {
		return
	}

	spots, err := h.parkingRepo.FindAvailable(hotelID, dateFrom, dateTo)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"spots": spots,
		"total": len(spots),
	})
}
