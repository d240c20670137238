package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-ledger-backend/internal/ledger"
	"hostel-ledger-backend/internal/mw"
	"hostel-ledger-backend/internal/store"
)

type createInstitutionRequest struct {
	Name          string `json:"name" binding:"required"`
	PayoutAddress string `json:"payoutAddress"`
}

// CreateInstitution handles POST /api/institutions.
func (h *Handler) CreateInstitution(c *gin.Context) {
	var req createInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	inst, err := h.store.CreateInstitution(c.Request.Context(), caller(c), req.Name, req.PayoutAddress)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inst)
}

// GetInstitutionBalance handles GET /api/institutions/:id/balance.
func (h *Handler) GetInstitutionBalance(c *gin.Context) {
	id := c.Param("id")
	balance, err := h.store.InstitutionBalance(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"institutionId": id,
		"balance":       balance,
		"currency":      h.currency,
	})
}

// ListRooms handles GET /api/institutions/:id/rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

// WithdrawFunds handles POST /api/institutions/:id/withdrawals.
func (h *Handler) WithdrawFunds(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id := c.Param("id")
	payout, err := h.store.WithdrawFunds(c.Request.Context(), caller(c), id, req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	mw.Evict(h.cache, balancePath(id))
	c.JSON(http.StatusCreated, payout)
}

type publishRoomRequest struct {
	Name            string `json:"name" binding:"required"`
	RoomSize        int    `json:"roomSize"`
	SemesterPayment int64  `json:"semesterPayment"`
	MinimumFee      int64  `json:"minimumFee"`
}

// PublishRoom handles POST /api/institutions/:id/rooms.
func (h *Handler) PublishRoom(c *gin.Context) {
	var req publishRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	room, memo, err := h.store.PublishRoomAndMemo(c.Request.Context(), caller(c), c.Param("id"), store.RoomRequest{
		Name:            req.Name,
		RoomSize:        req.RoomSize,
		SemesterPayment: req.SemesterPayment,
		MinimumFee:      req.MinimumFee,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": room, "memo": memo})
}

type publishMemoRequest struct {
	SemesterPayment int64 `json:"semesterPayment"`
	MinimumFee      int64 `json:"minimumFee"`
}

// PublishMemo handles POST /api/institutions/:id/rooms/:room_id/memos.
func (h *Handler) PublishMemo(c *gin.Context) {
	var req publishMemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	memo, err := h.store.PublishMemo(c.Request.Context(), caller(c), c.Param("id"), c.Param("room_id"), ledger.FeeTerms{
		SemesterPayment: req.SemesterPayment,
		MinimumFee:      req.MinimumFee,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, memo)
}
