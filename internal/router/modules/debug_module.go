package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-account-service/internal/container"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
)

type DebugModule struct {
	C *container.Container
}

func NewDebugModule(c *container.Container) *DebugModule { return &DebugModule{C: c} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// expvar counters (accounts_created, accounts_updated), rate-limited per IP
	rl := middleware.RateLimit(m.C.Redis, 120, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
