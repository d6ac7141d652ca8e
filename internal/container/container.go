// Package container holds the components built in main so that router modules
// can wire themselves. It is a plain value passed around explicitly.
package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/application"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/internal/domain/service"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

type Container struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Accounts  repo.AccountRepository
	Hasher    service.CredentialHasher
	Publisher application.EventPublisher
	Redis     *redis.Client
	JWT       *helpers.JWTManager
}

// AccountService builds the account service from the container's collaborators.
func (c *Container) AccountService() *application.AccountService {
	return application.NewAccountService(c.Accounts, c.Hasher, c.Publisher, c.Logger)
}
