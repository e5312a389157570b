package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SessionCfg holds configuration for the back-office session middleware.
type SessionCfg struct {
	DB         *gorm.DB
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// Session is a database-backed session for back-office users.
type Session struct {
	ID         string    `gorm:"primaryKey;type:char(36)"`
	UserID     string    `gorm:"type:char(36);not null;index:ix_sessions_user_id"`
	ExpiresAt  time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	LastSeenAt time.Time `gorm:"not null"`
}

func (Session) TableName() string { return "sessions" }

// SessionUser is what handlers see after the middleware ran.
type SessionUser struct {
	ID    string
	Email string
	Role  string
}

const ctxKeyUser = "current_user"

// SessionMiddleware loads the session from the cookie and puts the user in context.
// Missing or expired session just means "not logged in"; gates decide what to do.
func SessionMiddleware(cfg SessionCfg) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cfg.CookieName)
		if err != nil || sessionID == "" {
			c.Next()
			return
		}

		var sess Session
		if err := cfg.DB.Where("id = ? AND expires_at > ?", sessionID, time.Now()).First(&sess).Error; err != nil {
			// Session invalide ou expiree: on nettoie le cookie
			c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.Secure, true)
			c.Next()
			return
		}

		var u struct {
			Email string
			Role  string
		}
		if err := cfg.DB.Table("utilisateurs").Select("email, role").Where("id = ?", sess.UserID).Scan(&u).Error; err != nil {
			c.Next()
			return
		}

		c.Set(ctxKeyUser, SessionUser{ID: sess.UserID, Email: u.Email, Role: u.Role})

		// Sliding window: refresh last_seen_at, best effort
		_ = cfg.DB.Model(&Session{}).Where("id = ?", sess.ID).
			Update("last_seen_at", time.Now()).Error

		c.Next()
	}
}

func CurrentUser(c *gin.Context) (SessionUser, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return SessionUser{}, false
	}
	u, ok := v.(SessionUser)
	return u, ok
}
