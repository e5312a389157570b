package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agricapital.ci/app/internal/http/middleware"
	"agricapital.ci/app/internal/http/validation"
	"agricapital.ci/app/internal/modules/planteurs"
	"agricapital.ci/app/internal/shared/apperr"
)

type PlanteursHandler struct {
	Svc *planteurs.Service
}

func NewPlanteursHandler(svc *planteurs.Service) *PlanteursHandler {
	return &PlanteursHandler{Svc: svc}
}

type planteurCreateReq struct {
	Nom          string  `json:"nom" binding:"required,min=2,max=128"`
	Prenoms      string  `json:"prenoms" binding:"required,min=2,max=128"`
	Telephone    string  `json:"telephone" binding:"required,min=8,max=32"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Village      string  `json:"village" binding:"required,max=128"`
	RegionID     string  `json:"region_id" binding:"required,uuid4"`
	EquipeID     *string `json:"equipe_id" binding:"omitempty,uuid4"`
	ConseillerID *string `json:"conseiller_id" binding:"omitempty,uuid4"`
}

// POST /api/admin/planteurs
func (h *PlanteursHandler) Create(c *gin.Context) {
	var req planteurCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}

	p, err := h.Svc.Create(c.Request.Context(), planteurs.CreateInput{
		Nom:          req.Nom,
		Prenoms:      req.Prenoms,
		Telephone:    req.Telephone,
		Email:        req.Email,
		Village:      req.Village,
		RegionID:     req.RegionID,
		EquipeID:     req.EquipeID,
		ConseillerID: req.ConseillerID,
	})
	if err != nil {
		if errors.Is(err, planteurs.ErrTelephoneDejaPris) {
			middleware.Fail(c, apperr.ConflictErr("Ce numero de telephone est deja enregistre."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, p)
}

type planteurUpdateReq struct {
	Nom          *string `json:"nom" binding:"omitempty,min=2,max=128"`
	Prenoms      *string `json:"prenoms" binding:"omitempty,min=2,max=128"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Village      *string `json:"village" binding:"omitempty,max=128"`
	EquipeID     *string `json:"equipe_id" binding:"omitempty,uuid4"`
	ConseillerID *string `json:"conseiller_id" binding:"omitempty,uuid4"`
}

// PATCH /api/admin/planteurs/:id
func (h *PlanteursHandler) Update(c *gin.Context) {
	var req planteurUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}

	p, err := h.Svc.Update(c.Request.Context(), c.Param("id"), planteurs.UpdateInput{
		Nom:          req.Nom,
		Prenoms:      req.Prenoms,
		Email:        req.Email,
		Village:      req.Village,
		EquipeID:     req.EquipeID,
		ConseillerID: req.ConseillerID,
	})
	if err != nil {
		if errors.Is(err, planteurs.ErrIntrouvable) {
			middleware.Fail(c, apperr.NotFoundErr("Planteur introuvable."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/admin/planteurs/:id
func (h *PlanteursHandler) Get(c *gin.Context) {
	p, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, planteurs.ErrIntrouvable) {
			middleware.Fail(c, apperr.NotFoundErr("Planteur introuvable."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/admin/planteurs
func (h *PlanteursHandler) List(c *gin.Context) {
	res, err := h.Svc.List(c.Request.Context(), planteurs.ListParams{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
		RegionID: c.Query("region_id"),
		EquipeID: c.Query("equipe_id"),
		Search:   strings.TrimSpace(c.Query("q")),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res.Items, "total": res.Total})
}

type portalActivateReq struct {
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// POST /api/admin/planteurs/:id/portail
// Active (ou reinitialise) l'acces portail du planteur.
func (h *PlanteursHandler) ActivatePortal(c *gin.Context) {
	var req portalActivateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}

	if err := h.Svc.ActivatePortalAccount(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		if errors.Is(err, planteurs.ErrIntrouvable) {
			middleware.Fail(c, apperr.NotFoundErr("Planteur introuvable."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/portal/moi
func (h *PlanteursHandler) PortalMe(c *gin.Context) {
	p, err := h.Svc.GetByID(c.Request.Context(), middleware.CurrentPlanteurID(c))
	if err != nil {
		middleware.Fail(c, apperr.UnauthorizedErr("Session expiree ou invalide."))
		return
	}
	c.JSON(http.StatusOK, p)
}
