package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-account-service/internal/container"
	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
)

// AccountModule wires account HTTP handlers into routes
// Public:    POST /api/users
// Protected: PUT  /api/users (account id taken from the access token)
type AccountModule struct {
	Handler *handlers.AccountHandler
	C       *container.Container
}

func NewAccountModule(h *handlers.AccountHandler, c *container.Container) *AccountModule {
	return &AccountModule{Handler: h, C: c}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	cfg := m.C.Config
	var allow middleware.AllowFunc
	if cfg.RateLimitAllowPrivate {
		allow = middleware.AllowPrivateIP()
	}

	signupLimiter := middleware.RateLimit(m.C.Redis, cfg.SignupRateLimit, time.Minute, middleware.KeyByIPAndPath(), allow)
	updateLimiter := middleware.RateLimit(m.C.Redis, cfg.UpdateRateLimit, time.Minute, middleware.KeyByAccountID(), allow)

	rg.POST("/users", signupLimiter, m.Handler.Create)
	rg.PUT("/users", middleware.JWTAuth(m.C.JWT), updateLimiter, m.Handler.Update)
}
