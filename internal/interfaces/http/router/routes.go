// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"edu-lesson-ai-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由；generateLimit 只作用于触发模型调用的接口
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	contentHandler *handler.ArtifactHandler,
	lessonHandler *handler.ArtifactHandler,
	generateLimit gin.HandlerFunc,
) {
	// 公共内容
	contents := v1.Group("/contents")
	{
		contents.POST("/generate", generateLimit, contentHandler.Generate)
		contents.GET("", contentHandler.List)
		contents.GET("/:id", contentHandler.Get)
	}

	// 个人课程
	lessons := v1.Group("/lessons")
	{
		lessons.POST("/generate", generateLimit, lessonHandler.Generate)
		lessons.GET("", lessonHandler.List)
		lessons.GET("/:id", lessonHandler.Get)
		lessons.DELETE("/:id", lessonHandler.Delete)
		lessons.POST("/:id/quiz/grade", lessonHandler.GradeQuiz)
	}
}
