package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agricapital.ci/app/internal/http/middleware"
	"agricapital.ci/app/internal/modules/commissions"
	"agricapital.ci/app/internal/shared/apperr"
)

type CommissionsHandler struct {
	Svc *commissions.Service
}

func NewCommissionsHandler(svc *commissions.Service) *CommissionsHandler {
	return &CommissionsHandler{Svc: svc}
}

// GET /api/admin/commissions
func (h *CommissionsHandler) List(c *gin.Context) {
	res, err := h.Svc.List(c.Request.Context(), commissions.ListParams{
		Page:         parseInt(c.Query("page"), 1),
		PageSize:     parseInt(c.Query("page_size"), 50),
		ConseillerID: c.Query("conseiller_id"),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res.Items, "total": res.Total})
}

// GET /api/admin/commissions/equipes
func (h *CommissionsHandler) TotalsByEquipe(c *gin.Context) {
	totals, err := h.Svc.TotalsByEquipe(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": totals})
}
