package controller

import (
	"pillar_journey_backend/internal/service"
	"pillar_journey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BadgeController struct {
	BadgeService     *service.BadgeService
	DashboardService *service.DashboardService
}

func NewBadgeController(badgeService *service.BadgeService, dashboardService *service.DashboardService) *BadgeController {
	return &BadgeController{BadgeService: badgeService, DashboardService: dashboardService}
}

// @Summary 徽章列表
// @Description 全部徽章及当前用户的获得状态
// @Tags 徽章
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.BadgeStatus}
// @Router /badges [get]
func (c *BadgeController) ListBadges(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	badges, err := c.BadgeService.ListBadges(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, badges)
}

// @Summary 重新检查徽章
// @Description 可重复调用，已获得的徽章不会重复发放
// @Tags 徽章
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.BadgeUnlock}
// @Router /badges/evaluate [post]
func (c *BadgeController) EvaluateBadges(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	unlocked, err := c.BadgeService.Evaluate(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if len(unlocked) > 0 && c.DashboardService != nil {
		c.DashboardService.Invalidate(ctx.Request.Context(), user.UserID)
	}
	if unlocked == nil {
		unlocked = []service.BadgeUnlock{}
	}

	util.Success(ctx, unlocked)
}
