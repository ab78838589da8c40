// README: Budget HTTP handlers: JSON decoding, date parsing and delegation
// to the budget service.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"frete/internal/modules/budget"
	"frete/internal/types"
)

type createBudgetRequest struct {
	Origin        string     `json:"origin" binding:"required"`
	Destiny       string     `json:"destiny" binding:"required"`
	DepartAt      string     `json:"depart_at" binding:"required"`
	ReturnAt      string     `json:"return_at" binding:"required"`
	Toll          float64    `json:"toll"`
	DesiredProfit float64    `json:"desired_profit"`
	TaxPercent    float64    `json:"tax_percent"`
	ExtraCost     float64    `json:"extra_cost"`
	ClientID      types.ID   `json:"client_id" binding:"required"`
	CarID         types.ID   `json:"car_id" binding:"required"`
	DriverIDs     []types.ID `json:"driver_ids" binding:"required"`
}

type updateBudgetRequest struct {
	Origin        *string    `json:"origin"`
	Destiny       *string    `json:"destiny"`
	DepartAt      *string    `json:"depart_at"`
	ReturnAt      *string    `json:"return_at"`
	Toll          *float64   `json:"toll"`
	TaxPercent    *float64   `json:"tax_percent"`
	ExtraCost     *float64   `json:"extra_cost"`
	ClientID      *types.ID  `json:"client_id"`
	CarID         *types.ID  `json:"car_id"`
	DriverIDs     []types.ID `json:"driver_ids"`
	TripPrice     *float64   `json:"trip_price"`
	DesiredProfit *float64   `json:"desired_profit"`
}

type setStatusRequest struct {
	Status budget.Status `json:"status" binding:"required"`
}

func (s *Server) CreateBudget(c *gin.Context) {
	var req createBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err.Error())
		return
	}

	depart, err := parseDate(req.DepartAt)
	if err != nil {
		writeValidationError(c, "depart_at: "+err.Error())
		return
	}
	back, err := parseDate(req.ReturnAt)
	if err != nil {
		writeValidationError(c, "return_at: "+err.Error())
		return
	}

	res, err := s.budgets.Create(c.Request.Context(), budget.CreateCommand{
		Origin:        req.Origin,
		Destiny:       req.Destiny,
		DepartAt:      depart,
		ReturnAt:      back,
		Toll:          req.Toll,
		DesiredProfit: req.DesiredProfit,
		TaxPercent:    req.TaxPercent,
		ExtraCost:     req.ExtraCost,
		ClientID:      req.ClientID,
		CarID:         req.CarID,
		DriverIDs:     req.DriverIDs,
	}, ownerID(c))
	if err != nil {
		writeBudgetError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) UpdateBudget(c *gin.Context) {
	var req updateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err.Error())
		return
	}
	if req.TripPrice != nil && req.DesiredProfit != nil {
		writeValidationError(c, "trip_price and desired_profit are mutually exclusive")
		return
	}

	cmd := budget.UpdateCommand{
		Origin:     req.Origin,
		Destiny:    req.Destiny,
		Toll:       req.Toll,
		TaxPercent: req.TaxPercent,
		ExtraCost:  req.ExtraCost,
		ClientID:   req.ClientID,
		CarID:      req.CarID,
		DriverIDs:  req.DriverIDs,
	}

	if req.DepartAt != nil {
		depart, err := parseDate(*req.DepartAt)
		if err != nil {
			writeValidationError(c, "depart_at: "+err.Error())
			return
		}
		cmd.DepartAt = &depart
	}
	if req.ReturnAt != nil {
		back, err := parseDate(*req.ReturnAt)
		if err != nil {
			writeValidationError(c, "return_at: "+err.Error())
			return
		}
		cmd.ReturnAt = &back
	}

	switch {
	case req.TripPrice != nil:
		cmd.Pricing = budget.Pricing{Mode: budget.PriceOverride, Value: *req.TripPrice}
	case req.DesiredProfit != nil:
		cmd.Pricing = budget.Pricing{Mode: budget.ProfitOverride, Value: *req.DesiredProfit}
		cmd.DesiredProfit = req.DesiredProfit
	}

	res, err := s.budgets.Update(c.Request.Context(), types.ID(c.Param("id")), cmd, ownerID(c))
	if err != nil {
		writeBudgetError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) GetBudget(c *gin.Context) {
	b, err := s.budgets.Get(c.Request.Context(), types.ID(c.Param("id")), ownerID(c))
	if err != nil {
		writeBudgetError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) ListBudgets(c *gin.Context) {
	budgets, err := s.budgets.List(c.Request.Context(), ownerID(c))
	if err != nil {
		writeBudgetError(c, err)
		return
	}
	if budgets == nil {
		budgets = []*budget.Budget{}
	}
	c.JSON(http.StatusOK, budgets)
}

func (s *Server) ListTrips(c *gin.Context) {
	trips, err := s.budgets.ListTrips(c.Request.Context(), ownerID(c))
	if err != nil {
		writeBudgetError(c, err)
		return
	}
	if trips == nil {
		trips = []*budget.Budget{}
	}
	c.JSON(http.StatusOK, trips)
}

func (s *Server) SetBudgetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err.Error())
		return
	}

	b, err := s.budgets.SetStatus(c.Request.Context(), types.ID(c.Param("id")), req.Status, ownerID(c))
	if err != nil {
		writeBudgetError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) DeleteBudget(c *gin.Context) {
	if err := s.budgets.Delete(c.Request.Context(), types.ID(c.Param("id")), ownerID(c)); err != nil {
		writeBudgetError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func ownerID(c *gin.Context) types.ID {
	return types.ID(c.GetString(ownerKey))
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
