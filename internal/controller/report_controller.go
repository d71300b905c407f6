package controller

import (
	"fmt"
	"pillar_journey_backend/internal/service"
	"pillar_journey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	ReportService  *service.ReportService
	StorageService *service.StorageService
}

func NewReportController(reportService *service.ReportService, storageService *service.StorageService) *ReportController {
	return &ReportController{ReportService: reportService, StorageService: storageService}
}

func reportFilename(report *service.JourneyReport) string {
	return fmt.Sprintf("journey-report-%s.csv", util.FormatDate(report.GeneratedAt))
}

// @Summary 旅程报告
// @Description 旅程汇总、各修习项与每周进度、自评变化
// @Tags 报告
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.JourneyReport}
// @Failure 404 {object} util.Response
// @Router /reports [get]
func (c *ReportController) GetReport(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	report, err := c.ReportService.Build(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, report)
}

// @Summary 下载 CSV 报告
// @Tags 报告
// @Produce text/csv
// @Security ApiKeyAuth
// @Success 200 {file} file
// @Failure 404 {object} util.Response
// @Router /reports/csv [get]
func (c *ReportController) DownloadCSV(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	report, err := c.ReportService.Build(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	data, err := service.ExportCSV(report)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportFilename(report)))
	ctx.Data(200, "text/csv; charset=utf-8", data)
}

// @Summary 归档 CSV 报告
// @Description 把当前报告写入对象存储，返回存储地址
// @Tags 报告
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /reports/archive [post]
func (c *ReportController) ArchiveReport(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	report, err := c.ReportService.Build(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	data, err := service.ExportCSV(report)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	location, err := c.StorageService.ArchiveReport(ctx.Request.Context(), user.UserID, util.FormatDate(report.GeneratedAt), data)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"filename": reportFilename(report),
		"location": location,
	})
}
