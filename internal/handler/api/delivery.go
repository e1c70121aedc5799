package api

import (
	"errors"
	"net/http"

	reqdto "mealdrop-service/internal/handler/dto/request"
	"mealdrop-service/internal/pkg/errs"
	"mealdrop-service/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DeliveryHandler struct {
	commands *commands.DeliveryCommands
}

func NewDeliveryHandler(cmds *commands.DeliveryCommands) *DeliveryHandler {
	return &DeliveryHandler{
		commands: cmds,
	}
}

// @Summary Complete delivery
// @Description Process a delivery-completed event for a timeline entry
// @Tags deliveries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.DeliveryCompletedRequest true "Completed delivery"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /deliveries/complete [post]
func (h *DeliveryHandler) Complete(c *gin.Context) {
	var req reqdto.DeliveryCompletedRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.commands.OnCompleted(c.Request.Context(), req.TimelineEntryID); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Assign chef
// @Tags deliveries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entryId path string true "Timeline entry ID"
// @Param request body reqdto.AssignChefRequest true "Chef assignment"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /deliveries/{entryId}/chef [put]
func (h *DeliveryHandler) AssignChef(c *gin.Context) {
	entryID, ok := h.entryID(c)
	if !ok {
		return
	}

	var req reqdto.AssignChefRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.commands.AssignChef(c.Request.Context(), entryID, req.ChefID); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Assign driver
// @Tags deliveries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entryId path string true "Timeline entry ID"
// @Param request body reqdto.AssignDriverRequest true "Driver assignment"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /deliveries/{entryId}/driver [put]
func (h *DeliveryHandler) AssignDriver(c *gin.Context) {
	entryID, ok := h.entryID(c)
	if !ok {
		return
	}

	var req reqdto.AssignDriverRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.commands.AssignDriver(c.Request.Context(), entryID, req.DriverID); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeliveryHandler) entryID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid timeline entry ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

func (h *DeliveryHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrTimelineEntryNotFound),
		errors.Is(err, errs.ErrSubscriptionNotFound),
		errors.Is(err, errs.ErrDelegationNotFound),
		errors.Is(err, errs.ErrSnapshotNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
		})
	case errors.Is(err, errs.ErrNotInExpectedState):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Delivery cannot be processed in the current state",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
