package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agricapital.ci/app/internal/http/middleware"
	"agricapital.ci/app/internal/http/validation"
	"agricapital.ci/app/internal/modules/souscriptions"
	"agricapital.ci/app/internal/shared/apperr"
)

const maxDocumentSize = 10 << 20 // 10 MiB

type SouscriptionsHandler struct {
	Svc *souscriptions.Service
}

func NewSouscriptionsHandler(svc *souscriptions.Service) *SouscriptionsHandler {
	return &SouscriptionsHandler{Svc: svc}
}

// POST /api/portal/souscriptions
func (h *SouscriptionsHandler) Create(c *gin.Context) {
	sub, err := h.Svc.Create(c.Request.Context(), middleware.CurrentPlanteurID(c))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// GET /api/portal/souscriptions
func (h *SouscriptionsHandler) PortalList(c *gin.Context) {
	items, err := h.Svc.ListByPlanteur(c.Request.Context(), middleware.CurrentPlanteurID(c))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GET /api/portal/souscriptions/:id
func (h *SouscriptionsHandler) PortalGet(c *gin.Context) {
	sub, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Souscription introuvable."))
		return
	}
	if sub.PlanteurID != middleware.CurrentPlanteurID(c) {
		middleware.Fail(c, apperr.NotFoundErr("Souscription introuvable."))
		return
	}
	docs, err := h.Svc.Documents(c.Request.Context(), sub.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"souscription": sub, "documents": docs})
}

type etapeReq struct {
	Etape   string          `json:"etape" binding:"required,oneof=identite parcelle"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// PUT /api/portal/souscriptions/:id/etape
func (h *SouscriptionsHandler) UpdateEtape(c *gin.Context) {
	var req etapeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}

	sub, err := h.Svc.UpdateEtape(c.Request.Context(), c.Param("id"), middleware.CurrentPlanteurID(c), req.Etape, req.Payload)
	if err != nil {
		h.failDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// POST /api/portal/souscriptions/:id/documents
// multipart/form-data: fichier + type (cni | photo_parcelle | contrat)
func (h *SouscriptionsHandler) AddDocument(c *gin.Context) {
	docType := strings.TrimSpace(c.PostForm("type"))
	if docType == "" {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", map[string]string{"type": "Ce champ est obligatoire."}))
		return
	}

	fh, err := c.FormFile("fichier")
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Fichier manquant.", map[string]string{"fichier": "Ce champ est obligatoire."}))
		return
	}
	if fh.Size > maxDocumentSize {
		middleware.Fail(c, apperr.InvalidErr("Fichier trop volumineux (10 Mo maximum).", nil))
		return
	}

	f, err := fh.Open()
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	defer f.Close()

	doc, err := h.Svc.AddDocument(c.Request.Context(), c.Param("id"), middleware.CurrentPlanteurID(c), f, souscriptions.AddDocumentInput{
		Type:        docType,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	})
	if err != nil {
		h.failDomain(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// POST /api/portal/souscriptions/:id/soumettre
func (h *SouscriptionsHandler) Submit(c *gin.Context) {
	sub, err := h.Svc.Submit(c.Request.Context(), c.Param("id"), middleware.CurrentPlanteurID(c))
	if err != nil {
		h.failDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// GET /api/admin/souscriptions
func (h *SouscriptionsHandler) List(c *gin.Context) {
	res, err := h.Svc.List(c.Request.Context(), souscriptions.ListParams{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
		Statut:   c.Query("statut"),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res.Items, "total": res.Total})
}

// GET /api/admin/souscriptions/:id
func (h *SouscriptionsHandler) Get(c *gin.Context) {
	sub, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Souscription introuvable."))
		return
	}
	docs, err := h.Svc.Documents(c.Request.Context(), sub.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"souscription": sub, "documents": docs})
}

// POST /api/admin/souscriptions/:id/approuver
func (h *SouscriptionsHandler) Approve(c *gin.Context) {
	res, err := h.Svc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.failDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"souscription": res.Souscription,
		"plantation":   res.Plantation,
		"obligation":   res.Obligation,
	})
}

type rejectReq struct {
	Motif string `json:"motif" binding:"required,min=3,max=255"`
}

// POST /api/admin/souscriptions/:id/rejeter
func (h *SouscriptionsHandler) Reject(c *gin.Context) {
	var req rejectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}

	sub, err := h.Svc.Reject(c.Request.Context(), c.Param("id"), req.Motif)
	if err != nil {
		h.failDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SouscriptionsHandler) failDomain(c *gin.Context, err error) {
	switch {
	case errors.Is(err, souscriptions.ErrIntrouvable), errors.Is(err, souscriptions.ErrForbidden):
		middleware.Fail(c, apperr.NotFoundErr("Souscription introuvable."))
	case errors.Is(err, souscriptions.ErrEtapeInconnue):
		middleware.Fail(c, apperr.InvalidErr("Etape inconnue.", nil))
	case errors.Is(err, souscriptions.ErrDossierIncomplet):
		middleware.Fail(c, apperr.InvalidErr("Dossier incomplet: identite, parcelle et au moins une piece sont requis.", nil))
	case errors.Is(err, souscriptions.ErrDejaSoumise):
		middleware.Fail(c, apperr.ConflictErr("Cette souscription a deja ete soumise."))
	case errors.Is(err, souscriptions.ErrNonSoumise):
		middleware.Fail(c, apperr.ConflictErr("Cette souscription n'est pas en attente de validation."))
	default:
		middleware.Fail(c, apperr.Wrap(err))
	}
}
