package controller

import (
	"pillar_journey_backend/internal/service"
	"pillar_journey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MoodController struct {
	MoodService *service.MoodService
}

func NewMoodController(moodService *service.MoodService) *MoodController {
	return &MoodController{MoodService: moodService}
}

// @Summary 记录心情
// @Tags 心情
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.MoodInput true "心情 1-5，精力与压力 1-10"
// @Success 201 {object} util.Response{data=model.MoodLog}
// @Failure 400 {object} util.Response
// @Router /moods [post]
func (c *MoodController) LogMood(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.MoodInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	mood, err := c.MoodService.Log(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, mood)
}

// @Summary 最近的心情记录
// @Tags 心情
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "数量，默认 14，最多 100"
// @Success 200 {object} util.Response{data=[]model.MoodLog}
// @Router /moods [get]
func (c *MoodController) RecentMoods(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	logs, err := c.MoodService.Recent(ctx.Request.Context(), user.UserID, util.ParseLimit(ctx.Query("limit"), 14, 100))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, logs)
}
