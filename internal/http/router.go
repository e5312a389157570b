package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agricapital.ci/app/internal/cache"
	"agricapital.ci/app/internal/http/handlers"
	"agricapital.ci/app/internal/http/middleware"
	"agricapital.ci/app/internal/modules/commissions"
	"agricapital.ci/app/internal/modules/paiements"
	"agricapital.ci/app/internal/modules/plantations"
	"agricapital.ci/app/internal/modules/planteurs"
	"agricapital.ci/app/internal/modules/referentiel"
	"agricapital.ci/app/internal/modules/souscriptions"
	"agricapital.ci/app/internal/modules/users"
)

// Deps regroupe tout ce que le routeur branche sur les handlers.
type Deps struct {
	Logger *slog.Logger
	DB     *gorm.DB
	Cache  *cache.Cache

	JWTSecret []byte
	TokenTTL  time.Duration

	SessionCookieName string
	SessionTTL        time.Duration
	SecureCookie      bool

	Registry *paiements.Registry

	Users         *users.Service
	Planteurs     *planteurs.Service
	Plantations   *plantations.Repo
	Souscriptions *souscriptions.Service
	Paiements     *paiements.Service
	Verify        *paiements.VerifyService
	Webhooks      *paiements.WebhookService
	Commissions   *commissions.Service
	Referentiel   *referentiel.Repo
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.ErrorHandler(d.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	// Callbacks passerelles: ni session ni jeton, la signature fait foi.
	webhooks := handlers.NewWebhookHandler(d.Logger, d.Registry, d.Webhooks)
	r.POST("/webhooks/:gateway", webhooks.Handle)

	auth := &handlers.AuthHandler{
		Users:      d.Users,
		Planteurs:  d.Planteurs,
		JWTSecret:  d.JWTSecret,
		CookieName: d.SessionCookieName,
		Secure:     d.SecureCookie,
		SessionTTL: d.SessionTTL,
		TokenTTL:   d.TokenTTL,
	}

	planteursH := handlers.NewPlanteursHandler(d.Planteurs)
	plantationsH := handlers.NewPlantationsHandler(d.Plantations)
	souscriptionsH := handlers.NewSouscriptionsHandler(d.Souscriptions)
	paiementsH := handlers.NewPaiementsHandler(d.DB, d.Paiements, d.Verify)
	commissionsH := handlers.NewCommissionsHandler(d.Commissions)
	referentielH := handlers.NewReferentielHandler(d.Referentiel)
	usersH := handlers.NewUsersHandler(d.Users)
	dashboardH := handlers.NewDashboardHandler(d.DB, d.Cache)

	// Portail planteur: bearer JWT.
	portal := r.Group("/api/portal")
	portal.POST("/auth/login", auth.PortalLogin)
	{
		p := portal.Group("")
		p.Use(middleware.PortalAuth(d.JWTSecret))

		p.GET("/moi", planteursH.PortalMe)

		p.GET("/plantations", plantationsH.PortalList)
		p.GET("/plantations/:id", plantationsH.PortalGet)

		p.POST("/souscriptions", souscriptionsH.Create)
		p.GET("/souscriptions", souscriptionsH.PortalList)
		p.GET("/souscriptions/:id", souscriptionsH.PortalGet)
		p.PUT("/souscriptions/:id/etape", souscriptionsH.UpdateEtape)
		p.POST("/souscriptions/:id/documents", souscriptionsH.AddDocument)
		p.POST("/souscriptions/:id/soumettre", souscriptionsH.Submit)

		p.POST("/paiements", paiementsH.Initiate)
		p.GET("/paiements", paiementsH.PortalList)
		p.GET("/paiements/verifier", paiementsH.VerifyReturn)
		p.GET("/paiements/:id", paiementsH.PortalGet)
	}

	// Back office: sessions cookie en base.
	admin := r.Group("/api/admin")
	admin.Use(middleware.SessionMiddleware(middleware.SessionCfg{
		DB:         d.DB,
		CookieName: d.SessionCookieName,
		Secure:     d.SecureCookie,
		TTL:        d.SessionTTL,
	}))
	admin.POST("/auth/login", auth.AdminLogin)
	{
		a := admin.Group("")
		a.Use(middleware.RequireAuth())

		a.POST("/auth/logout", auth.AdminLogout)
		a.GET("/auth/me", auth.AdminMe)

		a.GET("/dashboard", dashboardH.Stats)

		a.GET("/planteurs", planteursH.List)
		a.POST("/planteurs", planteursH.Create)
		a.GET("/planteurs/:id", planteursH.Get)
		a.PATCH("/planteurs/:id", planteursH.Update)
		a.POST("/planteurs/:id/portail", planteursH.ActivatePortal)

		a.GET("/plantations", plantationsH.List)
		a.POST("/plantations", plantationsH.Create)
		a.GET("/plantations/:id", plantationsH.Get)

		a.GET("/souscriptions", souscriptionsH.List)
		a.GET("/souscriptions/:id", souscriptionsH.Get)
		a.POST("/souscriptions/:id/approuver", souscriptionsH.Approve)
		a.POST("/souscriptions/:id/rejeter", souscriptionsH.Reject)

		a.GET("/paiements", paiementsH.List)
		a.GET("/paiements/export", paiementsH.Export)
		a.GET("/paiements/:id", paiementsH.Get)

		a.GET("/commissions", commissionsH.List)
		a.GET("/commissions/equipes", commissionsH.TotalsByEquipe)

		// Referentiel et comptes: admin uniquement.
		adm := a.Group("")
		adm.Use(middleware.RequireRole("admin"))

		adm.GET("/referentiel/regions", referentielH.ListRegions)
		adm.POST("/referentiel/regions", referentielH.CreateRegion)
		adm.GET("/referentiel/equipes", referentielH.ListEquipes)
		adm.POST("/referentiel/equipes", referentielH.CreateEquipe)
		adm.GET("/referentiel/roles", referentielH.ListRoles)
		adm.PUT("/referentiel/roles/:code", referentielH.SaveRole)

		adm.GET("/utilisateurs", usersH.List)
		adm.POST("/utilisateurs", usersH.Create)
	}

	return r
}
