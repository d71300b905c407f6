package controller

import (
	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/service"
	"pillar_journey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	AssessmentService *service.AssessmentService
}

func NewAssessmentController(assessmentService *service.AssessmentService) *AssessmentController {
	return &AssessmentController{AssessmentService: assessmentService}
}

// @Summary 提交自评
// @Tags 自评
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.AssessmentInput true "自评内容，各项 1-10"
// @Success 201 {object} util.Response{data=model.SelfAssessment}
// @Failure 400 {object} util.Response
// @Router /assessments [post]
func (c *AssessmentController) SubmitAssessment(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.AssessmentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	assessment, err := c.AssessmentService.Submit(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, assessment)
}

// @Summary 自评列表
// @Tags 自评
// @Produce json
// @Security ApiKeyAuth
// @Param type query string false "baseline / weekly / final"
// @Success 200 {object} util.Response{data=[]model.SelfAssessment}
// @Router /assessments [get]
func (c *AssessmentController) ListAssessments(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	list, err := c.AssessmentService.List(ctx.Request.Context(), user.UserID, model.AssessmentType(ctx.Query("type")))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, list)
}

// @Summary 基线对比
// @Tags 自评
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.AssessmentComparison}
// @Router /assessments/compare [get]
func (c *AssessmentController) CompareAssessments(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	cmp, err := c.AssessmentService.Compare(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, cmp)
}
