package api

import (
	"errors"
	"net/http"
	"strconv"

	reqdto "mealdrop-service/internal/handler/dto/request"
	resdto "mealdrop-service/internal/handler/dto/response"
	"mealdrop-service/internal/handler/middleware"
	"mealdrop-service/internal/pkg/errs"
	"mealdrop-service/internal/usecase/commands"
	"mealdrop-service/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SubscriptionHandler struct {
	commands *commands.SubscriptionCommands
	queries  *queries.SubscriptionQueries
}

func NewSubscriptionHandler(cmds *commands.SubscriptionCommands, qs *queries.SubscriptionQueries) *SubscriptionHandler {
	return &SubscriptionHandler{
		commands: cmds,
		queries:  qs,
	}
}

// @Summary Create subscription
// @Description Subscribe the current customer to a meal plan
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateSubscriptionRequest true "Subscription request"
// @Success 201 {object} resdto.SubscriptionResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /subscriptions [post]
func (h *SubscriptionHandler) Create(c *gin.Context) {
	customerID, ok := middleware.GetCustomerID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.CreateSubscriptionRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	id, err := h.commands.Create(c.Request.Context(), commands.CreateSubscriptionInput{
		CustomerID:      customerID,
		PlanID:          req.PlanID,
		StartDate:       req.StartDate,
		DurationWeeks:   req.DurationWeeks,
		Categories:      req.Categories,
		DeliveryWindow:  req.DeliveryWindow,
		DiscountPercent: req.DiscountPercent,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrPlanNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Meal plan not found",
			})
		case errors.Is(err, errs.ErrDomainValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Domain validation failed",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	view, err := h.queries.GetSubscription(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	c.JSON(http.StatusCreated, resdto.FromSubscriptionView(view))
}

// @Summary Get subscription
// @Description Get subscription by ID
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} resdto.SubscriptionResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /subscriptions/{id} [get]
func (h *SubscriptionHandler) Get(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	view, err := h.queries.GetSubscription(c.Request.Context(), id)
	if err != nil {
		h.renderQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSubscriptionView(view))
}

// @Summary List subscriptions
// @Description List the current customer's subscriptions
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.SubscriptionResponse
// @Failure 401 {object} map[string]string
// @Router /subscriptions [get]
func (h *SubscriptionHandler) List(c *gin.Context) {
	customerID, ok := middleware.GetCustomerID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	views, err := h.queries.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response := make([]*resdto.SubscriptionResponse, len(views))
	for i, v := range views {
		response[i] = resdto.FromSubscriptionView(v)
	}
	c.JSON(http.StatusOK, response)
}

// @Summary Pause subscription
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Param request body reqdto.PauseSubscriptionRequest true "Pause request"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /subscriptions/{id}/pause [post]
func (h *SubscriptionHandler) Pause(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	var req reqdto.PauseSubscriptionRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.commands.Pause(c.Request.Context(), id, req.Reason); err != nil {
		h.renderCommandError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Resume subscription
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /subscriptions/{id}/resume [post]
func (h *SubscriptionHandler) Resume(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}
	if err := h.commands.Resume(c.Request.Context(), id); err != nil {
		h.renderCommandError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Cancel subscription
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /subscriptions/{id}/cancel [post]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}
	if err := h.commands.Cancel(c.Request.Context(), id); err != nil {
		h.renderCommandError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Skip a delivery date
// @Description Skip all meals scheduled on the given date
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Param request body reqdto.SkipMealRequest true "Skip request"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /subscriptions/{id}/skip [post]
func (h *SubscriptionHandler) Skip(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	var req reqdto.SkipMealRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.commands.SkipMeal(c.Request.Context(), id, req.Date, req.Reason); err != nil {
		h.renderCommandError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get current meal
// @Description Get the meal the subscription's cursor points at
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} resdto.CurrentMealResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /subscriptions/{id}/current-meal [get]
func (h *SubscriptionHandler) CurrentMeal(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	view, err := h.queries.GetCurrentMeal(c.Request.Context(), id)
	if err != nil {
		h.renderQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCurrentMealView(view))
}

// @Summary Get delivery timeline
// @Description Upcoming delivery days from the current cursor position
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Param days query int false "Look-ahead window in days (default 14)"
// @Success 200 {array} resdto.TimelineDayResponse
// @Failure 404 {object} map[string]string
// @Router /subscriptions/{id}/timeline [get]
func (h *SubscriptionHandler) Timeline(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid days parameter",
			})
			return
		}
		days = parsed
	}

	timeline, err := h.queries.GetTimeline(c.Request.Context(), id, days)
	if err != nil {
		h.renderQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromTimeline(timeline))
}

// @Summary Get delegation
// @Description Chef/driver timeline for a subscription
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} resdto.DelegationResponse
// @Failure 404 {object} map[string]string
// @Router /subscriptions/{id}/delegation [get]
func (h *SubscriptionHandler) Delegation(c *gin.Context) {
	id, ok := h.subscriptionID(c)
	if !ok {
		return
	}

	view, err := h.queries.GetDelegation(c.Request.Context(), id)
	if err != nil {
		h.renderQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromDelegationView(view))
}

const defaultRecompileLimit = 50

// @Summary Recompile incomplete snapshots
// @Description Retry snapshot compilation for subscriptions degraded by a catalog outage
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum subscriptions to process (default 50)"
// @Success 200 {object} resdto.RecompileResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /admin/snapshots/recompile [post]
func (h *SubscriptionHandler) RecompileSnapshots(c *gin.Context) {
	limit := defaultRecompileLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit parameter",
			})
			return
		}
		limit = parsed
	}

	recompiled, err := h.commands.RecompileIncompleteSnapshots(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	c.JSON(http.StatusOK, resdto.RecompileResponse{Recompiled: recompiled})
}

func (h *SubscriptionHandler) subscriptionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid subscription ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

func (h *SubscriptionHandler) renderCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Subscription not found",
		})
	case errors.Is(err, errs.ErrSnapshotNotFound), errors.Is(err, errs.ErrDelegationNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Subscription schedule not found",
		})
	case errors.Is(err, errs.ErrNotInExpectedState):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Subscription is not in the expected state",
		})
	case errors.Is(err, errs.ErrDomainValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Domain validation failed",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

func (h *SubscriptionHandler) renderQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrSubscriptionNotFound),
		errors.Is(err, errs.ErrSnapshotNotFound),
		errors.Is(err, errs.ErrDelegationNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
		})
	case errors.Is(err, errs.ErrSnapshotIncomplete):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Meal schedule is still being prepared",
		})
	case errors.Is(err, errs.ErrNotInExpectedState):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Subscription is not in the expected state",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
