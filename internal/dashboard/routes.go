package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, s *server) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", s.auth.middleware())

	// Boards.
	api.GET("/board", s.handleOpenBoard)
	api.GET("/boards", s.handleListBoards)
	api.POST("/boards", s.handleCreateBoard)
	api.GET("/boards/:id", s.handleGetBoard)
	api.PATCH("/boards/:id", s.handleRenameBoard)
	api.POST("/boards/:id/columns", s.handleCreateColumn)
	api.POST("/boards/:id/leave", s.handleLeaveBoard)

	// Views.
	api.GET("/boards/:id/grouped", s.handleGrouped)
	api.GET("/boards/:id/week", s.handleWeek)
	api.GET("/boards/:id/export", s.handleExport)
	api.GET("/boards/:id/events", s.handleEvents)

	// Tasks.
	api.GET("/boards/:id/tasks", s.handleListTasks)
	api.POST("/boards/:id/tasks", s.handleCreateTask)
	api.PATCH("/tasks/:id", s.handleUpdateTask)
	api.DELETE("/tasks/:id", s.handleDeleteTask)
	api.POST("/tasks/:id/move", s.handleMoveTask)
	api.POST("/tasks/:id/drop", s.handleDropTask)
	api.POST("/columns/:id/reorder", s.handleReorder)

	// Subjects.
	api.GET("/boards/:id/subjects", s.handleListSubjects)
	api.POST("/boards/:id/subjects", s.handleAddSubject)
	api.PATCH("/subjects/:id", s.handleUpdateSubject)
	api.DELETE("/subjects/:id", s.handleDeleteSubject)

	// Sharing.
	api.GET("/boards/:id/invites", s.handleListInvites)
	api.POST("/boards/:id/invites", s.handleCreateInvite)
	api.DELETE("/boards/:id/invites/:invite", s.handleRevokeInvite)
	api.GET("/invites/:code", s.handleLookupInvite)
	api.POST("/invites/:code/accept", s.handleAcceptInvite)

	// Settings.
	api.GET("/settings", s.handleGetSettings)
	api.PUT("/settings", s.handleSaveSettings)
}
