package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subguard/subguard/internal/app/api/middleware"
	"github.com/subguard/subguard/internal/app/service/auth"
	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/pkg/response"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token *auth.TokenPair `json:"token"`
	User  *models.User    `json:"user"`
}

// @Summary      Register
// @Description  Creates a user account.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body auth.RegisterInput true "Registration payload"
// @Success      200  {object}  RespUser
// @Router       /api/v1/auth/register [post]
func ApiRegister(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.RegisterInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		user, err := svc.Register(c.Request.Context(), &req)
		if err != nil {
			if errors.Is(err, auth.ErrEmailTaken) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	}
}

// @Summary      Login
// @Description  Verifies credentials and returns an access token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body loginRequest true "Credentials"
// @Success      200  {object}  RespLogin
// @Router       /api/v1/auth/login [post]
func ApiLogin(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		pair, user, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(loginResponse{Token: pair, User: user}))
	}
}

// @Summary      Current user
// @Description  Returns the authenticated user's profile and counters.
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RespUser
// @Router       /api/v1/auth/me [get]
func ApiMe(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.Me(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	}
}

// RegisterAuthRoutes wires the public auth endpoints; /me goes on the
// protected group.
func RegisterAuthRoutes(pub gin.IRouter, protected gin.IRouter, svc *auth.Service) {
	pub.POST("/auth/register", ApiRegister(svc))
	pub.POST("/auth/login", ApiLogin(svc))
	protected.GET("/auth/me", ApiMe(svc))
}
