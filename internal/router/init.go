package router

import (
	"github.com/oksasatya/go-account-service/internal/container"
	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/router/modules"
)

// InitModules builds every feature module from the container and adds it to the registry.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	accountHandler := handlers.NewAccountHandler(c.AccountService(), c.Logger)
	r.Add(modules.NewAccountModule(accountHandler, c))

	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c))
	}
}
