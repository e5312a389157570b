package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agricapital.ci/app/internal/http/middleware"
	"agricapital.ci/app/internal/http/validation"
	"agricapital.ci/app/internal/modules/users"
	"agricapital.ci/app/internal/shared/apperr"
)

type UsersHandler struct {
	Svc *users.Service
}

func NewUsersHandler(svc *users.Service) *UsersHandler {
	return &UsersHandler{Svc: svc}
}

type userCreateReq struct {
	Email    string  `json:"email" binding:"required,email"`
	Nom      string  `json:"nom" binding:"required,min=2,max=128"`
	Password string  `json:"password" binding:"required,min=8,max=72"`
	Role     string  `json:"role" binding:"required,max=32"`
	EquipeID *string `json:"equipe_id" binding:"omitempty,uuid4"`
}

// POST /api/admin/utilisateurs
func (h *UsersHandler) Create(c *gin.Context) {
	var req userCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Champs invalides.", validation.FromBindError(err, &req)))
		return
	}

	u, err := h.Svc.Create(c.Request.Context(), users.CreateInput{
		Email:    req.Email,
		Nom:      req.Nom,
		Password: req.Password,
		Role:     req.Role,
		EquipeID: req.EquipeID,
	})
	if err != nil {
		if errors.Is(err, users.ErrEmailDejaPris) {
			middleware.Fail(c, apperr.ConflictErr("Cet email est deja utilise."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, u)
}

// GET /api/admin/utilisateurs
func (h *UsersHandler) List(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
