package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subguard/subguard/internal/app/api/middleware"
	"github.com/subguard/subguard/internal/app/service/execution"
	"github.com/subguard/subguard/internal/app/service/optimizer"
	"github.com/subguard/subguard/internal/app/service/statistics"
	"github.com/subguard/subguard/pkg/response"
)

// @Summary      List optimizations
// @Description  Returns the user's recommendations, optionally filtered by status.
// @Tags         Optimizations
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "pending|executed"
// @Success      200  {object}  RespOptimizationList
// @Router       /api/v1/optimizations [get]
func ApiListOptimizations(svc *optimizer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.ListByUser(c.Request.Context(), middleware.UserID(c), c.Query("status"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

// @Summary      Execute optimization
// @Description  Applies a pending recommendation. Negotiate actions spawn a negotiation chat.
// @Tags         Optimizations
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Optimization ID"
// @Success      200  {object}  RespExecution
// @Router       /api/v1/optimizations/{id}/execute [post]
func ApiExecuteOptimization(svc *execution.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Execute(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			switch {
			case errors.Is(err, execution.ErrNotFound):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
			case errors.Is(err, execution.ErrAlreadyExecuted):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
			case errors.Is(err, execution.ErrUnknownAction):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			default:
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Optimization results
// @Description  Aggregates executed versus pending recommendations.
// @Tags         Optimizations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RespResults
// @Router       /api/v1/optimizations/results [get]
func ApiOptimizationResults(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Results(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Dashboard summary
// @Tags         Optimizations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RespDashboard
// @Router       /api/v1/optimizations/dashboard/summary [get]
func ApiDashboardSummary(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Dashboard(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterOptimizationRoutes(r gin.IRouter, opt *optimizer.Service, exec *execution.Service, stats *statistics.Service) {
	r.GET("/optimizations", ApiListOptimizations(opt))
	r.GET("/optimizations/results", ApiOptimizationResults(stats))
	r.GET("/optimizations/dashboard/summary", ApiDashboardSummary(stats))
	r.POST("/optimizations/:id/execute", ApiExecuteOptimization(exec))
}
