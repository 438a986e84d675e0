package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/subguard/subguard/internal/app/api/middleware"
	actsvc "github.com/subguard/subguard/internal/app/service/activity"
	"github.com/subguard/subguard/pkg/response"
)

// @Summary      List activities
// @Description  Returns the user's audit log, newest first.
// @Tags         Activities
// @Produce      json
// @Security     BearerAuth
// @Param        unread query bool false "Only unread entries"
// @Param        limit query int false "Max entries (default 50)"
// @Success      200  {object}  RespActivityList
// @Router       /api/v1/activities [get]
func ApiListActivities(svc *actsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		unread, _ := strconv.ParseBool(c.Query("unread"))
		limit, _ := strconv.Atoi(c.Query("limit"))

		items, err := svc.List(c.Request.Context(), middleware.UserID(c), unread, limit)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

// @Summary      Mark activity read
// @Tags         Activities
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Activity ID"
// @Success      200  {object}  RespOK
// @Router       /api/v1/activities/{id}/read [patch]
func ApiMarkActivityRead(svc *actsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.MarkRead(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			if errors.Is(err, actsvc.ErrNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Mark all activities read
// @Tags         Activities
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RespOK
// @Router       /api/v1/activities/read_all [patch]
func ApiMarkAllActivitiesRead(svc *actsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svc.MarkAllRead(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]int64{"updated": n}))
	}
}

func RegisterActivityRoutes(r gin.IRouter, svc *actsvc.Service) {
	r.GET("/activities", ApiListActivities(svc))
	r.PATCH("/activities/read_all", ApiMarkAllActivitiesRead(svc))
	r.PATCH("/activities/:id/read", ApiMarkActivityRead(svc))
}
