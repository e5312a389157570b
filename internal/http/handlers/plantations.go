package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agricapital.ci/app/internal/http/middleware"
	"agricapital.ci/app/internal/http/validation"
	"agricapital.ci/app/internal/modules/plantations"
	"agricapital.ci/app/internal/shared/apperr"
)

type PlantationsHandler struct {
	Repo *plantations.Repo
}

func NewPlantationsHandler(repo *plantations.Repo) *PlantationsHandler {
	return &PlantationsHandler{Repo: repo}
}

type plantationCreateReq struct {
	PlanteurID       string  `json:"planteur_id" binding:"required,uuid4"`
	RegionID         string  `json:"region_id" binding:"required,uuid4"`
	Village          string  `json:"village" binding:"required,max=128"`
	Culture          string  `json:"culture" binding:"required,max=64"`
	SuperficieTotale float64 `json:"superficie_totale" binding:"required,gt=0"`
}

// POST /api/admin/plantations
func (h *PlantationsHandler) Create(c *gin.Context) {
	var req plantationCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}

	p, err := h.Repo.Create(c.Request.Context(), plantations.CreateInput{
		PlanteurID:       req.PlanteurID,
		RegionID:         req.RegionID,
		Village:          req.Village,
		Culture:          req.Culture,
		SuperficieTotale: req.SuperficieTotale,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GET /api/admin/plantations/:id
func (h *PlantationsHandler) Get(c *gin.Context) {
	p, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, plantations.ErrIntrouvable) {
			middleware.Fail(c, apperr.NotFoundErr("Plantation introuvable."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/admin/plantations
func (h *PlantationsHandler) List(c *gin.Context) {
	res, err := h.Repo.List(c.Request.Context(), plantations.ListParams{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
		RegionID: c.Query("region_id"),
		Statut:   c.Query("statut"),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res.Items, "total": res.Total})
}

// GET /api/portal/plantations
func (h *PlantationsHandler) PortalList(c *gin.Context) {
	items, err := h.Repo.ListByPlanteur(c.Request.Context(), middleware.CurrentPlanteurID(c))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GET /api/portal/plantations/:id
func (h *PlantationsHandler) PortalGet(c *gin.Context) {
	p, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, plantations.ErrIntrouvable) {
			middleware.Fail(c, apperr.NotFoundErr("Plantation introuvable."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if p.PlanteurID != middleware.CurrentPlanteurID(c) {
		middleware.Fail(c, apperr.NotFoundErr("Plantation introuvable."))
		return
	}
	c.JSON(http.StatusOK, p)
}
