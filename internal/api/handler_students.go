package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createStudentRequest struct {
	Name          string `json:"name" binding:"required"`
	InstitutionID string `json:"institutionId" binding:"required"`
}

// CreateStudent handles POST /api/students.
func (h *Handler) CreateStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	student, err := h.store.CreateStudent(c.Request.Context(), caller(c), req.Name, req.InstitutionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// TopUp handles POST /api/students/:id/top-ups.
func (h *Handler) TopUp(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	student, err := h.store.TopUpStudentBalance(c.Request.Context(), caller(c), c.Param("id"), req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}
