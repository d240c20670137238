package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hostel-ledger-backend/internal/mw"
	"hostel-ledger-backend/internal/store"
)

type bookRoomRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	RoomID    string `json:"roomId" binding:"required"`
	MemoID    string `json:"memoId" binding:"required"`
}

// BookRoom handles POST /api/institutions/:id/bookings.
func (h *Handler) BookRoom(c *gin.Context) {
	var req bookRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	receipt, err := h.store.BookRoom(c.Request.Context(), caller(c), store.BookRequest{
		InstitutionID: c.Param("id"),
		StudentID:     req.StudentID,
		RoomID:        req.RoomID,
		MemoID:        req.MemoID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	mw.Evict(h.cache, balancePath(receipt.Record.InstitutionID))
	if !h.notifier.Dispatch(receipt.Record) {
		h.logger.Debug("booking confirmation not queued", zap.String("booking_id", receipt.Record.ID))
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking": receipt.Record,
		"amount":  receipt.Funds.Value(),
	})
}

type placementRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	RoomID    string `json:"roomId" binding:"required"`
}

func bindPlacement(c *gin.Context) (store.PlacementRequest, bool) {
	var req placementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return store.PlacementRequest{}, false
	}
	return store.PlacementRequest{
		InstitutionID: c.Param("id"),
		StudentID:     req.StudentID,
		RoomID:        req.RoomID,
	}, true
}

// TransferRoom handles POST /api/institutions/:id/transfers.
func (h *Handler) TransferRoom(c *gin.Context) {
	req, ok := bindPlacement(c)
	if !ok {
		return
	}
	occupant, err := h.store.TransferRoomOwnership(c.Request.Context(), caller(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, occupant)
}

// ReturnRoom handles POST /api/institutions/:id/returns.
func (h *Handler) ReturnRoom(c *gin.Context) {
	req, ok := bindPlacement(c)
	if !ok {
		return
	}
	ret, err := h.store.ReturnRoom(c.Request.Context(), caller(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ret)
}

// BookingsByStudent handles GET /api/students/:id/bookings.
func (h *Handler) BookingsByStudent(c *gin.Context) {
	records, err := h.store.BookingsByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// BookingsByRoom handles GET /api/rooms/:room_id/bookings.
func (h *Handler) BookingsByRoom(c *gin.Context) {
	records, err := h.store.BookingsByRoom(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetBooking handles GET /api/bookings/:id.
func (h *Handler) GetBooking(c *gin.Context) {
	record, err := h.store.BookingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
