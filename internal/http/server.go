// README: API gateway; registers HTTP routes and delegates to the budget
// service.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"frete/internal/modules/budget"
)

type Server struct {
	budgets *budget.Service
	log     *logrus.Logger
}

func NewServer(budgets *budget.Service, log *logrus.Logger) *Server {
	return &Server{budgets: budgets, log: log}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", RequireOwner())
	api.POST("/budgets", s.CreateBudget)
	api.GET("/budgets", s.ListBudgets)
	api.GET("/budgets/trips", s.ListTrips)
	api.GET("/budgets/:id", s.GetBudget)
	api.PUT("/budgets/:id", s.UpdateBudget)
	api.PATCH("/budgets/:id/status", s.SetBudgetStatus)
	api.DELETE("/budgets/:id", s.DeleteBudget)

	return r
}
