package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subguard/subguard/internal/app/api/middleware"
	"github.com/subguard/subguard/internal/app/service/optimizer"
	subsvc "github.com/subguard/subguard/internal/app/service/subscription"
	"github.com/subguard/subguard/pkg/response"
	"github.com/subguard/subguard/pkg/types"
)

type detectRequest struct {
	Transactions []subsvc.BankTransaction `json:"transactions" binding:"required,dive"`
}

// @Summary      List subscriptions
// @Description  Returns the user's subscriptions, optionally filtered by status.
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "active|cancelled|trial|paused"
// @Success      200  {object}  RespSubscriptionList
// @Router       /api/v1/subscriptions [get]
func ApiListSubscriptions(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.List(c.Request.Context(), middleware.UserID(c),
			types.SubscriptionStatus(c.Query("status")))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

// @Summary      Create subscription
// @Tags         Subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body subscription.CreateInput true "Subscription"
// @Success      200  {object}  RespSubscription
// @Router       /api/v1/subscriptions [post]
func ApiCreateSubscription(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subsvc.CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		sub, err := svc.Create(c.Request.Context(), middleware.UserID(c), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

// @Summary      Get subscription
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription ID"
// @Success      200  {object}  RespSubscription
// @Router       /api/v1/subscriptions/{id} [get]
func ApiGetSubscription(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			if errors.Is(err, subsvc.ErrNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

// @Summary      Update subscription
// @Description  Partial update; absent fields are untouched.
// @Tags         Subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription ID"
// @Param        request body subscription.UpdateInput true "Fields to update"
// @Success      200  {object}  RespSubscription
// @Router       /api/v1/subscriptions/{id} [patch]
func ApiUpdateSubscription(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subsvc.UpdateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		sub, err := svc.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), &req)
		if err != nil {
			if errors.Is(err, subsvc.ErrNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			if errors.Is(err, subsvc.ErrInvalidCost) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

// @Summary      Delete subscription
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription ID"
// @Success      200  {object}  RespOK
// @Router       /api/v1/subscriptions/{id} [delete]
func ApiDeleteSubscription(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			if errors.Is(err, subsvc.ErrNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Analyze subscription
// @Description  Returns the transient rule+AI analysis without persisting anything.
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription ID"
// @Success      200  {object}  RespAnalysis
// @Router       /api/v1/subscriptions/{id}/analyze [get]
func ApiAnalyzeSubscription(svc *optimizer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := svc.GetSubscription(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			if errors.Is(err, optimizer.ErrNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(svc.Analyze(c.Request.Context(), sub)))
	}
}

// @Summary      Optimize subscription
// @Description  Analyzes the subscription and persists the resulting recommendations.
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription ID"
// @Success      200  {object}  RespOptimizationList
// @Router       /api/v1/subscriptions/{id}/optimize [post]
func ApiOptimizeSubscription(svc *optimizer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := svc.OptimizeSubscription(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			if errors.Is(err, optimizer.ErrNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(recs))
	}
}

// @Summary      Detect subscriptions from bank statement
// @Description  Scans posted transactions for recurring charges of known services.
// @Tags         Subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body detectRequest true "Bank transactions"
// @Success      200  {object}  RespSubscriptionList
// @Router       /api/v1/subscriptions/detect/bank [post]
func ApiDetectFromBank(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req detectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		created, err := svc.DetectFromTransactions(c.Request.Context(), middleware.UserID(c), req.Transactions)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(created))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, svc *subsvc.Service, opt *optimizer.Service) {
	r.GET("/subscriptions", ApiListSubscriptions(svc))
	r.POST("/subscriptions", ApiCreateSubscription(svc))
	r.POST("/subscriptions/detect/bank", ApiDetectFromBank(svc))
	r.GET("/subscriptions/:id", ApiGetSubscription(svc))
	r.PATCH("/subscriptions/:id", ApiUpdateSubscription(svc))
	r.DELETE("/subscriptions/:id", ApiDeleteSubscription(svc))
	r.GET("/subscriptions/:id/analyze", ApiAnalyzeSubscription(opt))
	r.POST("/subscriptions/:id/optimize", ApiOptimizeSubscription(opt))
}
