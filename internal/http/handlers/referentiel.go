package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"agricapital.ci/app/internal/http/middleware"
	"agricapital.ci/app/internal/http/validation"
	"agricapital.ci/app/internal/modules/referentiel"
	"agricapital.ci/app/internal/shared/apperr"
)

type ReferentielHandler struct {
	Repo *referentiel.Repo
}

func NewReferentielHandler(repo *referentiel.Repo) *ReferentielHandler {
	return &ReferentielHandler{Repo: repo}
}

// GET /api/admin/referentiel/regions
func (h *ReferentielHandler) ListRegions(c *gin.Context) {
	items, err := h.Repo.ListRegions(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type regionReq struct {
	Code string `json:"code" binding:"required,max=16"`
	Nom  string `json:"nom" binding:"required,max=128"`
}

// POST /api/admin/referentiel/regions
func (h *ReferentielHandler) CreateRegion(c *gin.Context) {
	var req regionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}
	reg, err := h.Repo.CreateRegion(c.Request.Context(), req.Code, req.Nom)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// GET /api/admin/referentiel/equipes
func (h *ReferentielHandler) ListEquipes(c *gin.Context) {
	items, err := h.Repo.ListEquipes(c.Request.Context(), c.Query("region_id"))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type equipeReq struct {
	Nom           string  `json:"nom" binding:"required,max=128"`
	RegionID      string  `json:"region_id" binding:"required,uuid4"`
	ResponsableID *string `json:"responsable_id" binding:"omitempty,uuid4"`
}

// POST /api/admin/referentiel/equipes
func (h *ReferentielHandler) CreateEquipe(c *gin.Context) {
	var req equipeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}
	e, err := h.Repo.CreateEquipe(c.Request.Context(), req.Nom, req.RegionID, req.ResponsableID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, e)
}

// GET /api/admin/referentiel/roles
func (h *ReferentielHandler) ListRoles(c *gin.Context) {
	items, err := h.Repo.ListRoles(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type roleReq struct {
	Code              string         `json:"code" binding:"required,max=32"`
	Nom               string         `json:"nom" binding:"required,max=128"`
	TauxCommission    float64        `json:"taux_commission" binding:"gte=0,lte=1"`
	FormuleCommission string         `json:"formule_commission" binding:"max=255"`
	Permissions       datatypes.JSON `json:"permissions"`
}

// PUT /api/admin/referentiel/roles/:code
// Cree le role s'il n'existe pas encore.
func (h *ReferentielHandler) SaveRole(c *gin.Context) {
	var req roleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}
	if req.Code != c.Param("code") {
		middleware.Fail(c, apperr.InvalidErr("Le code du role ne correspond pas a l'URL.", nil))
		return
	}

	role, err := h.Repo.GetRoleByCode(c.Request.Context(), req.Code)
	if err != nil && !errors.Is(err, referentiel.ErrRefIntrouvable) {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	role.Code = req.Code
	role.Nom = req.Nom
	role.TauxCommission = req.TauxCommission
	role.FormuleCommission = req.FormuleCommission
	if req.Permissions != nil {
		role.Permissions = req.Permissions
	}
	if err := h.Repo.SaveRole(c.Request.Context(), &role); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, role)
}
