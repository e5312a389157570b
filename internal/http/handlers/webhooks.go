package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"agricapital.ci/app/internal/modules/paiements"
)

type WebhookHandler struct {
	Logger     *slog.Logger
	Registry   *paiements.Registry
	WebhookSvc *paiements.WebhookService
}

func NewWebhookHandler(logger *slog.Logger, reg *paiements.Registry, svc *paiements.WebhookService) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Registry: reg, WebhookSvc: svc}
}

// POST /webhooks/:gateway
// Body is raw JSON; signature header validated by gateway adapter.
func (h *WebhookHandler) Handle(c *gin.Context) {
	gw, err := h.Registry.Get(c.Param("gateway"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "unknown gateway"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	ev, err := gw.VerifyAndParseWebhook(c.Request.Header, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid signature or payload"})
		return
	}

	if err := h.WebhookSvc.Handle(c.Request.Context(), gw.Name(), ev, body); err != nil {
		// 500: la passerelle relivrera
		h.Logger.Error("webhook apply failed", "gateway", gw.Name(), "event_id", ev.EventID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
