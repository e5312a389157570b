package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"agricapital.ci/app/internal/http/middleware"
	"agricapital.ci/app/internal/http/validation"
	"agricapital.ci/app/internal/modules/paiements"
	"agricapital.ci/app/internal/modules/plantations"
	"agricapital.ci/app/internal/shared/apperr"
	"agricapital.ci/app/pkg/view"
)

type PaiementsHandler struct {
	DB        *gorm.DB
	Svc       *paiements.Service
	VerifySvc *paiements.VerifyService
}

func NewPaiementsHandler(db *gorm.DB, svc *paiements.Service, verify *paiements.VerifyService) *PaiementsHandler {
	return &PaiementsHandler{DB: db, Svc: svc, VerifySvc: verify}
}

type initiateReq struct {
	PlantationID string `json:"plantation_id" binding:"required,uuid4"`
	Kind         string `json:"kind" binding:"required,oneof=access_right contribution"`
	Montant      int64  `json:"montant" binding:"required,gt=0"`
	Gateway      string `json:"gateway" binding:"required"`
}

// POST /api/portal/paiements
func (h *PaiementsHandler) Initiate(c *gin.Context) {
	var req initiateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}

	planteurID := middleware.CurrentPlanteurID(c)

	var pl struct {
		Nom       string
		Prenoms   string
		Telephone string
		Email     *string
	}
	if err := h.DB.Table("planteurs").
		Select("nom, prenoms, telephone, email").
		Where("id = ?", planteurID).Scan(&pl).Error; err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	email := ""
	if pl.Email != nil {
		email = *pl.Email
	}

	res, err := h.Svc.Initiate(c.Request.Context(), paiements.InitiateInput{
		PlanteurID:        planteurID,
		PlantationID:      req.PlantationID,
		Kind:              req.Kind,
		Montant:           req.Montant,
		Gateway:           req.Gateway,
		CustomerNom:       pl.Nom + " " + pl.Prenoms,
		CustomerTelephone: pl.Telephone,
		CustomerEmail:     email,
	})
	if err != nil {
		switch {
		case errors.Is(err, paiements.ErrGatewayInconnue):
			middleware.Fail(c, apperr.InvalidErr("Moyen de paiement inconnu.", nil))
		case errors.Is(err, paiements.ErrMontantInvalide):
			middleware.Fail(c, apperr.InvalidErr("Montant invalide.", nil))
		case errors.Is(err, paiements.ErrPlantationInactive):
			middleware.Fail(c, apperr.ConflictErr("Cette plantation est deja entierement activee."))
		case errors.Is(err, paiements.ErrForbidden), errors.Is(err, plantations.ErrIntrouvable):
			middleware.Fail(c, apperr.NotFoundErr("Plantation introuvable."))
		default:
			middleware.Fail(c, apperr.Wrap(err))
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"paiement":     res.Paiement,
		"redirect_url": res.RedirectURL,
	})
}

// GET /api/portal/paiements
func (h *PaiementsHandler) PortalList(c *gin.Context) {
	items, err := h.Svc.ListByPlanteur(c.Request.Context(), middleware.CurrentPlanteurID(c))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GET /api/portal/paiements/:id
func (h *PaiementsHandler) PortalGet(c *gin.Context) {
	p, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil || p.PlanteurID != middleware.CurrentPlanteurID(c) {
		middleware.Fail(c, apperr.NotFoundErr("Paiement introuvable."))
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/portal/paiements/verifier?gateway=cinetpay&transaction_id=...
// Page de retour du paiement: re-derive l'etat aupres de la passerelle.
func (h *PaiementsHandler) VerifyReturn(c *gin.Context) {
	gateway := c.Query("gateway")
	txID := c.Query("transaction_id")
	if gateway == "" || txID == "" {
		middleware.Fail(c, apperr.InvalidErr("Parametres manquants.", nil))
		return
	}

	res, err := h.VerifySvc.Verify(c.Request.Context(), gateway, txID)
	if err != nil {
		if errors.Is(err, paiements.ErrGatewayInconnue) {
			middleware.Fail(c, apperr.InvalidErr("Moyen de paiement inconnu.", nil))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/admin/paiements
func (h *PaiementsHandler) List(c *gin.Context) {
	page := parseInt(c.Query("page"), 1)
	res, err := h.Svc.List(c.Request.Context(), paiements.ListParams{
		Page:     page,
		PageSize: parseInt(c.Query("page_size"), 50),
		Statut:   c.Query("statut"),
		Kind:     c.Query("kind"),
		Gateway:  c.Query("gateway"),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	out := view.PaiementList{Items: make([]view.PaiementDetail, 0, len(res.Items)), Total: res.Total, Page: page}
	labels := h.labelsFor(res.Items)
	for _, p := range res.Items {
		d := view.PaiementDetail{
			ID:           p.ID,
			Reference:    p.Reference,
			Kind:         p.Kind,
			Statut:       p.Statut,
			Gateway:      p.Gateway,
			Montant:      p.Montant,
			MontantLabel: view.MoneyFCFA(p.Montant),
			MontantPaye:  p.MontantPaye,
			PlanteurID:   p.PlanteurID,
			PlantationID: p.PlantationID,
			PaidAt:       p.PaidAt,
			CreatedAt:    p.CreatedAt,
		}
		if p.TransactionID != nil {
			d.TransactionID = *p.TransactionID
		}
		if l, ok := labels[p.PlanteurID]; ok {
			d.PlanteurNom = l
		}
		if code, ok := labels[p.PlantationID]; ok {
			d.PlantationCode = code
		}
		out.Items = append(out.Items, d)
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/admin/paiements/:id
func (h *PaiementsHandler) Get(c *gin.Context) {
	p, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Paiement introuvable."))
		return
	}

	var events []paiements.GatewayEvent
	if err := h.DB.Order("received_at ASC").
		Find(&events, "paiement_id = ? OR reference = ?", p.ID, p.Reference).Error; err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"paiement": p, "events": events})
}

type exportRow struct {
	Reference     string
	Kind          string
	Statut        string
	Gateway       string
	Montant       int64
	MontantPaye   *int64
	PlanteurNom   string
	PlanteurCode  string
	PaidAt        *time.Time
	CreatedAt     time.Time
}

// GET /api/admin/paiements/export
func (h *PaiementsHandler) Export(c *gin.Context) {
	q := h.DB.Table("paiements p").
		Select(`p.reference, p.kind, p.statut, p.gateway, p.montant, p.montant_paye,
			pl.nom || ' ' || pl.prenoms AS planteur_nom, pl.code AS planteur_code,
			p.paid_at, p.created_at`).
		Joins("LEFT JOIN planteurs pl ON pl.id = p.planteur_id").
		Order("p.created_at DESC")
	if s := c.Query("statut"); s != "" {
		q = q.Where("p.statut = ?", s)
	}
	if k := c.Query("kind"); k != "" {
		q = q.Where("p.kind = ?", k)
	}

	var rows []exportRow
	if err := q.Scan(&rows).Error; err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	f := excelize.NewFile()
	sheet := "Paiements"
	index, _ := f.NewSheet(sheet)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Reference", "Type", "Statut", "Passerelle", "Montant (FCFA)", "Montant paye", "Planteur", "Code planteur", "Paye le", "Cree le"}
	for i, hd := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hd)
	}

	for i, r := range rows {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Reference)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), kindLabel(r.Kind))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Statut)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.Gateway)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.Montant)
		if r.MontantPaye != nil {
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), *r.MontantPaye)
		}
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), r.PlanteurNom)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), r.PlanteurCode)
		if r.PaidAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), r.PaidAt.Format("02/01/2006 15:04"))
		}
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), r.CreatedAt.Format("02/01/2006 15:04"))
	}

	filename := fmt.Sprintf("paiements_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(c.Writer); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
	}
}

// labelsFor loads "nom prenoms" per planteur id and code per plantation id
// in two batch queries. Ids never collide across the two tables (uuids).
func (h *PaiementsHandler) labelsFor(items []paiements.Paiement) map[string]string {
	out := map[string]string{}
	if len(items) == 0 {
		return out
	}
	planteurIDs := make([]string, 0, len(items))
	plantationIDs := make([]string, 0, len(items))
	for _, p := range items {
		planteurIDs = append(planteurIDs, p.PlanteurID)
		plantationIDs = append(plantationIDs, p.PlantationID)
	}

	var pls []struct {
		ID      string
		Nom     string
		Prenoms string
	}
	if err := h.DB.Table("planteurs").Select("id, nom, prenoms").Where("id IN ?", planteurIDs).Scan(&pls).Error; err == nil {
		for _, p := range pls {
			out[p.ID] = p.Nom + " " + p.Prenoms
		}
	}

	var plts []struct {
		ID   string
		Code string
	}
	if err := h.DB.Table("plantations").Select("id, code").Where("id IN ?", plantationIDs).Scan(&plts).Error; err == nil {
		for _, p := range plts {
			out[p.ID] = p.Code
		}
	}
	return out
}

func kindLabel(kind string) string {
	if kind == paiements.KindAccessRight {
		return "Droit d'acces"
	}
	return "Cotisation"
}
