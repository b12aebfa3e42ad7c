package handlers

import (
	"errors"
	"net/http"

	"ims_backend/internal/models"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DayHandler holds the sales day service.
type DayHandler struct {
	dayService services.DayService
}

// NewDayHandler creates a new DayHandler.
func NewDayHandler(ds services.DayService) *DayHandler {
	return &DayHandler{dayService: ds}
}

func (h *DayHandler) OpenDay(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	day, err := h.dayService.OpenDay(actor)
	if err != nil {
		respondServiceError(c, err, "OpenDay: Error from dayService.OpenDay")
		return
	}
	c.JSON(http.StatusCreated, day)
}

func (h *DayHandler) CloseDay(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	day, err := h.dayService.CloseDay(actor)
	if err != nil {
		respondServiceError(c, err, "CloseDay: Error from dayService.CloseDay")
		return
	}
	c.JSON(http.StatusOK, day)
}

// CurrentDay returns the open day, or a closed placeholder for today.
func (h *DayHandler) CurrentDay(c *gin.Context) {
	day, err := h.dayService.CurrentDay()
	if errors.Is(err, services.ErrNoOpenDay) {
		c.JSON(http.StatusOK, gin.H{"is_open": false, "date": h.dayService.Today()})
		return
	}
	if err != nil {
		respondServiceError(c, err, "CurrentDay: Error from dayService.CurrentDay")
		return
	}
	c.JSON(http.StatusOK, day)
}

func (h *DayHandler) GetDays(c *gin.Context) {
	page, pageSize := pagination(c)
	days, total, err := h.dayService.GetDays(page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetDays: Error from dayService.GetDays")
		return
	}
	if days == nil {
		days = []models.SalesDay{}
	}
	respondList(c, days, total, page, pageSize)
}

func (h *DayHandler) GetDayByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	day, err := h.dayService.GetDayByID(id)
	if err != nil {
		respondServiceError(c, err, "GetDayByID: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, day)
}

func (h *DayHandler) DeleteDay(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.dayService.DeleteDay(actor, id); err != nil {
		respondServiceError(c, err, "DeleteDay: Error for ID "+utils.Int64ToStr(id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sales day deleted successfully"})
}
