package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"agricapital.ci/app/internal/http/middleware"
	"agricapital.ci/app/internal/http/validation"
	"agricapital.ci/app/internal/modules/planteurs"
	"agricapital.ci/app/internal/modules/users"
	"agricapital.ci/app/internal/shared/apperr"
)

type AuthHandler struct {
	Users      *users.Service
	Planteurs  *planteurs.Service
	JWTSecret  []byte
	CookieName string
	Secure     bool
	SessionTTL time.Duration
	TokenTTL   time.Duration
}

type adminLoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// POST /api/admin/auth/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req adminLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}

	u, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrIdentifiants) {
			middleware.Fail(c, apperr.UnauthorizedErr("Email ou mot de passe incorrect."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	sess, err := h.Users.CreateSession(c.Request.Context(), u.ID, h.SessionTTL)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.SetCookie(h.CookieName, sess.ID, int(h.SessionTTL.Seconds()), "/", "", h.Secure, true)
	c.JSON(http.StatusOK, gin.H{
		"id":    u.ID,
		"email": u.Email,
		"nom":   u.Nom,
		"role":  u.Role,
	})
}

// POST /api/admin/auth/logout
func (h *AuthHandler) AdminLogout(c *gin.Context) {
	if sessionID, err := c.Cookie(h.CookieName); err == nil && sessionID != "" {
		_ = h.Users.DeleteSession(c.Request.Context(), sessionID)
	}
	c.SetCookie(h.CookieName, "", -1, "/", "", h.Secure, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/admin/auth/me
func (h *AuthHandler) AdminMe(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentification requise."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "email": u.Email, "role": u.Role})
}

type portalLoginReq struct {
	Telephone string `json:"telephone" binding:"required"`
	Password  string `json:"password" binding:"required,min=6"`
}

// POST /api/portal/auth/login
// Repond avec un jeton bearer; le portail mobile n'a pas de cookie.
func (h *AuthHandler) PortalLogin(c *gin.Context) {
	var req portalLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}

	p, err := h.Planteurs.Authenticate(c.Request.Context(), req.Telephone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, planteurs.ErrIdentifiants):
			middleware.Fail(c, apperr.UnauthorizedErr("Telephone ou mot de passe incorrect."))
		case errors.Is(err, planteurs.ErrCompteNonActive):
			middleware.Fail(c, apperr.ForbiddenErr("Compte portail non active. Rapprochez-vous de votre conseiller."))
		default:
			middleware.Fail(c, apperr.Wrap(err))
		}
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": p.ID,
		"iat": now.Unix(),
		"exp": now.Add(h.TokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.JWTSecret)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"planteur": gin.H{
			"id":      p.ID,
			"code":    p.Code,
			"nom":     p.Nom,
			"prenoms": p.Prenoms,
		},
	})
}
