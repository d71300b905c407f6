package controller

import (
	"pillar_journey_backend/internal/service"
	"pillar_journey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type InsightController struct {
	InsightService *service.InsightService
}

func NewInsightController(insightService *service.InsightService) *InsightController {
	return &InsightController{InsightService: insightService}
}

// @Summary 有效洞察列表
// @Description 未读优先，其次按优先级与创建时间倒序
// @Tags 洞察
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.InsightList}
// @Router /insights [get]
func (c *InsightController) ListInsights(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	list, err := c.InsightService.ListActive(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, list)
}

// @Summary 重新生成洞察
// @Tags 洞察
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /insights/refresh [post]
func (c *InsightController) RefreshInsights(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	count, err := c.InsightService.Refresh(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"count": count})
}

// @Summary 标记洞察已读
// @Tags 洞察
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "洞察ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /insights/{id}/read [patch]
func (c *InsightController) MarkRead(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.InsightService.MarkRead(ctx.Request.Context(), user.UserID, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// @Summary 忽略洞察
// @Tags 洞察
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "洞察ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /insights/{id}/dismiss [patch]
func (c *InsightController) Dismiss(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.InsightService.Dismiss(ctx.Request.Context(), user.UserID, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// @Summary 全部标记已读
// @Tags 洞察
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /insights/read-all [post]
func (c *InsightController) MarkAllRead(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	n, err := c.InsightService.MarkAllRead(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"updated": n})
}
