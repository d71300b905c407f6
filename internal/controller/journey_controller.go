package controller

import (
	"pillar_journey_backend/internal/service"
	"pillar_journey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type JourneyController struct {
	JourneyService   *service.JourneyService
	DashboardService *service.DashboardService
}

func NewJourneyController(journeyService *service.JourneyService, dashboardService *service.DashboardService) *JourneyController {
	return &JourneyController{JourneyService: journeyService, DashboardService: dashboardService}
}

type startJourneyRequest struct {
	StartDate string `json:"startDate"`
}

// @Summary 开始新旅程
// @Description 已有进行中的旅程会被替换
// @Tags 旅程
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body startJourneyRequest false "开始日期，默认今天"
// @Success 201 {object} util.Response{data=service.JourneyView}
// @Failure 400 {object} util.Response
// @Router /journey/start [post]
func (c *JourneyController) StartJourney(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req startJourneyRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	view, err := c.JourneyService.Start(ctx.Request.Context(), user.UserID, req.StartDate)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	c.DashboardService.Invalidate(ctx.Request.Context(), user.UserID)

	util.Created(ctx, view)
}

// @Summary 当前旅程
// @Tags 旅程
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.JourneyView}
// @Failure 404 {object} util.Response
// @Router /journey/current [get]
func (c *JourneyController) CurrentJourney(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.JourneyService.Current(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// @Summary 完成旅程
// @Description 第 48 天起可以标记完成
// @Tags 旅程
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.JourneyView}
// @Failure 400 {object} util.Response
// @Router /journey/complete [post]
func (c *JourneyController) CompleteJourney(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.JourneyService.Complete(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	c.DashboardService.Invalidate(ctx.Request.Context(), user.UserID)

	util.Success(ctx, view)
}
