package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agricapital.ci/app/internal/cache"
	"agricapital.ci/app/internal/http/middleware"
	"agricapital.ci/app/internal/shared/apperr"
	"agricapital.ci/app/pkg/view"
)

const dashboardCacheKey = "dashboard:stats"

type DashboardHandler struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func NewDashboardHandler(db *gorm.DB, c *cache.Cache) *DashboardHandler {
	return &DashboardHandler{DB: db, Cache: c}
}

// GET /api/admin/dashboard
func (h *DashboardHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	var stats view.DashboardStats
	if h.Cache != nil && h.Cache.GetJSON(ctx, dashboardCacheKey, &stats) {
		c.JSON(http.StatusOK, stats)
		return
	}

	db := h.DB.WithContext(ctx)
	if err := db.Table("planteurs").Count(&stats.PlanteursTotal).Error; err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	db.Table("plantations").Count(&stats.PlantationsTotal)
	db.Table("plantations").Where("statut = ?", "active").Count(&stats.PlantationsActives)
	db.Table("souscriptions").Where("statut IN ?", []string{"brouillon", "soumise"}).Count(&stats.SouscriptionsEnCours)

	db.Table("paiements").Where("statut = ?", "pending").Count(&stats.PaiementsPending)
	db.Table("paiements").Where("statut = ?", "valid").Count(&stats.PaiementsValid)
	db.Table("paiements").Where("statut = ?", "failed").Count(&stats.PaiementsFailed)

	db.Table("paiements").Where("statut = ?", "valid").
		Select("COALESCE(SUM(montant_paye), 0)").Scan(&stats.MontantEncaisse)
	stats.MontantEncaisseLabel = view.MoneyFCFA(stats.MontantEncaisse)

	db.Table("plantations").Select("COALESCE(SUM(superficie_activee), 0)").Scan(&stats.SuperficieActivee)

	var slices []view.GatewaySlice
	db.Table("paiements").
		Select("gateway, COUNT(*) AS nombre, COALESCE(SUM(montant_paye), 0) AS encaisse").
		Where("statut = ?", "valid").
		Group("gateway").
		Scan(&slices)
	stats.ParGateway = slices

	var regions []view.RegionSlice
	db.Table("plantations").
		Select("plantations.region_id, COALESCE(regions.nom, '') AS region, COALESCE(SUM(plantations.superficie_activee), 0) AS hectares").
		Joins("LEFT JOIN regions ON regions.id = plantations.region_id").
		Group("plantations.region_id, regions.nom").
		Scan(&regions)
	stats.ParRegion = regions

	if h.Cache != nil {
		h.Cache.SetJSON(ctx, dashboardCacheKey, stats, 5*time.Minute)
	}
	c.JSON(http.StatusOK, stats)
}
