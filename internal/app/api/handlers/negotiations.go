package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subguard/subguard/internal/app/api/middleware"
	negsvc "github.com/subguard/subguard/internal/app/service/negotiation"
	"github.com/subguard/subguard/pkg/response"
	"github.com/subguard/subguard/pkg/types"
)

type negotiationMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func negotiationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, negsvc.ErrNotFound):
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
	case errors.Is(err, negsvc.ErrExpired), errors.Is(err, negsvc.ErrClosed):
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
	default:
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
	}
}

// @Summary      List negotiations
// @Tags         Negotiations
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "active|accepted|rejected|expired"
// @Success      200  {object}  RespNegotiationList
// @Router       /api/v1/negotiations [get]
func ApiListNegotiations(svc *negsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.List(c.Request.Context(), middleware.UserID(c),
			types.NegotiationStatus(c.Query("status")))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

// @Summary      Open negotiation
// @Description  Starts a chat with a subscription's provider.
// @Tags         Negotiations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body negsvc.OpenInput true "Negotiation target"
// @Success      200  {object}  RespNegotiation
// @Router       /api/v1/negotiations [post]
func ApiOpenNegotiation(svc *negsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in negsvc.OpenInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		neg, err := svc.Open(c.Request.Context(), middleware.UserID(c), &in)
		if err != nil {
			negotiationError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(neg))
	}
}

// @Summary      Get negotiation
// @Tags         Negotiations
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Negotiation ID"
// @Success      200  {object}  RespNegotiation
// @Router       /api/v1/negotiations/{id} [get]
func ApiGetNegotiation(svc *negsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		neg, err := svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			negotiationError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(neg))
	}
}

// @Summary      Send negotiation message
// @Description  Appends the user's message and the provider's reply to the chat.
// @Tags         Negotiations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Negotiation ID"
// @Param        request body negotiationMessageRequest true "Message"
// @Success      200  {object}  RespNegotiation
// @Router       /api/v1/negotiations/{id}/message [post]
func ApiSendNegotiationMessage(svc *negsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req negotiationMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		neg, err := svc.SendMessage(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Message)
		if err != nil {
			negotiationError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(neg))
	}
}

// @Summary      Accept negotiation offer
// @Tags         Negotiations
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Negotiation ID"
// @Success      200  {object}  RespNegotiation
// @Router       /api/v1/negotiations/{id}/accept [post]
func ApiAcceptNegotiation(svc *negsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		neg, err := svc.Accept(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			negotiationError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(neg))
	}
}

// @Summary      Reject negotiation
// @Tags         Negotiations
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Negotiation ID"
// @Success      200  {object}  RespNegotiation
// @Router       /api/v1/negotiations/{id}/reject [post]
func ApiRejectNegotiation(svc *negsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		neg, err := svc.Reject(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			negotiationError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(neg))
	}
}

func RegisterNegotiationRoutes(r gin.IRouter, svc *negsvc.Service) {
	r.GET("/negotiations", ApiListNegotiations(svc))
	r.POST("/negotiations", ApiOpenNegotiation(svc))
	r.GET("/negotiations/:id", ApiGetNegotiation(svc))
	r.POST("/negotiations/:id/message", ApiSendNegotiationMessage(svc))
	r.POST("/negotiations/:id/accept", ApiAcceptNegotiation(svc))
	r.POST("/negotiations/:id/reject", ApiRejectNegotiation(svc))
}
