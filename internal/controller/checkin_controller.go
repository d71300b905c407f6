package controller

import (
	"pillar_journey_backend/internal/service"
	"pillar_journey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CheckinController struct {
	ProgressService *service.ProgressService
}

func NewCheckinController(progressService *service.ProgressService) *CheckinController {
	return &CheckinController{ProgressService: progressService}
}

// @Summary 记录修习完成
// @Description 同一用户、修习项、日期重复提交只保留一条记录，积分最多发放一次
// @Tags 打卡
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.CompletionRequest true "打卡内容"
// @Success 200 {object} util.Response{data=service.CompletionResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /checkins [post]
func (c *CheckinController) RecordCompletion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CompletionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ProgressService.RecordCompletion(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 打卡记录
// @Description 按日期闭区间查询，缺省为当前旅程全程
// @Tags 打卡
// @Produce json
// @Security ApiKeyAuth
// @Param from query string false "开始日期 YYYY-MM-DD"
// @Param to query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=[]model.Checkin}
// @Router /checkins [get]
func (c *CheckinController) ListCheckins(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	checkins, err := c.ProgressService.ListCheckins(ctx.Request.Context(), user.UserID, ctx.Query("from"), ctx.Query("to"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, checkins)
}

// @Summary 积分余额
// @Tags 积分
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /karma [get]
func (c *CheckinController) GetKarma(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	total, err := c.ProgressService.Balance(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"total": total})
}

// @Summary 积分流水
// @Tags 积分
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "数量，默认 50，最多 200"
// @Success 200 {object} util.Response{data=[]model.KarmaTransaction}
// @Router /karma/transactions [get]
func (c *CheckinController) ListTransactions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	limit := util.ParseLimit(ctx.Query("limit"), 50, 200)
	txns, err := c.ProgressService.Transactions(ctx.Request.Context(), user.UserID, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, txns)
}
