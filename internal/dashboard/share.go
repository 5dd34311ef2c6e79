package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/studyflow/internal/models"
)

// --- Invites ---

type inviteRequest struct {
	Role models.Role `json:"role"`
}

func (s *server) handleCreateInvite(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleViewer
	}
	inv, err := s.invites.Create(c.Request.Context(), c.Param("id"), currentUser(c), req.Role)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (s *server) handleListInvites(c *gin.Context) {
	invs, err := s.invites.ListActive(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if invs == nil {
		invs = []models.Invite{}
	}
	c.JSON(http.StatusOK, invs)
}

func (s *server) handleRevokeInvite(c *gin.Context) {
	if err := s.invites.Revoke(c.Request.Context(), c.Param("invite"), currentUser(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) handleLookupInvite(c *gin.Context) {
	info, err := s.invites.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"board_title": info.BoardTitle,
		"role":        info.Invite.Role,
		"expires_at":  info.Invite.ExpiresAt,
		"uses_left":   info.Invite.MaxUses - info.Invite.UseCount,
	})
}

func (s *server) handleAcceptInvite(c *gin.Context) {
	res, err := s.invites.Accept(c.Request.Context(), c.Param("code"), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"board_id": res.BoardID,
		"role":     res.Role,
		"joined":   res.Joined,
	})
}

// --- Settings ---

type settingsRequest struct {
	NotificationsEnabled bool `json:"notifications_enabled"`
	HoursBeforeDeadline  int  `json:"hours_before_deadline"`
	EmailNotifications   bool `json:"email_notifications"`
}

func (s *server) handleGetSettings(c *gin.Context) {
	us, err := s.store.GetSettings(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, us)
}

func (s *server) handleSaveSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	us, err := s.store.SaveSettings(c.Request.Context(), models.UserSettings{
		UserID:               currentUser(c),
		NotificationsEnabled: req.NotificationsEnabled,
		HoursBeforeDeadline:  req.HoursBeforeDeadline,
		EmailNotifications:   req.EmailNotifications,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, us)
}
