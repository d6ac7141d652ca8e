package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
	"github.com/oksasatya/go-account-service/pkg/response"
	"github.com/oksasatya/go-account-service/pkg/validation"
)

// AccountService is the part of application.AccountService the handler needs.
type AccountService interface {
	CreateAccount(ctx context.Context, in application.CreateAccountInput) error
	UpdateAccount(ctx context.Context, accountID string, in application.UpdateAccountInput) error
}

type AccountHandler struct {
	Svc    AccountService
	Logger *logrus.Logger
}

func NewAccountHandler(svc AccountService, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger}
}

type createAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type updateAccountRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,pwd"`
	OldPassword *string `json:"old_password"`
}

// Create POST /api/users
func (h *AccountHandler) Create(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Svc.CreateAccount(c.Request.Context(), application.CreateAccountInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusCreated, nil, "account created", nil)
}

// Update PUT /api/users (auth required)
func (h *AccountHandler) Update(c *gin.Context) {
	accountID := c.GetString(middleware.CtxAccountIDKey)
	if accountID == "" {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Svc.UpdateAccount(c.Request.Context(), accountID, application.UpdateAccountInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		OldPassword: req.OldPassword,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "account updated", nil)
}

func (h *AccountHandler) writeError(c *gin.Context, err error) {
	var inputErr *application.InputError
	switch {
	case errors.As(err, &inputErr):
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{inputErr.Field: inputErr.Reason})
	case errors.Is(err, application.ErrDuplicateEmail),
		errors.Is(err, application.ErrMissingOldPassword),
		errors.Is(err, application.ErrIncorrectOldPassword):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrAccountNotFound):
		response.Error[any](c, http.StatusNotFound, err.Error(), nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("account request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}
