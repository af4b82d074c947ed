package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/accounts/internal/accounts"
	"github.com/geocoder89/accounts/internal/domain/token"
	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/geocoder89/accounts/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// bcrypt runs inside these calls, so allow more than a plain DB lookup
const accountsTimeout = 5 * time.Second

type UserCreator interface {
	CreateUser(ctx context.Context, email, password string, extra accounts.Extra) (user.User, error)
}

type CredentialChecker interface {
	Authenticate(ctx context.Context, email, password string) (user.User, error)
}

type TokenIssuer interface {
	IssueOrReuse(ctx context.Context, u user.User) (token.Token, error)
}

type ProfileManager interface {
	GetProfile(u user.User) user.Profile
	UpdateProfile(ctx context.Context, u user.User, upd accounts.ProfileUpdate) (user.User, error)
}

type UsersHandler struct {
	users    UserCreator
	authn    CredentialChecker
	tokens   TokenIssuer
	profiles ProfileManager
	log      *slog.Logger
}

func NewUsersHandler(users UserCreator, authn CredentialChecker, tokens TokenIssuer, profiles ProfileManager, log *slog.Logger) *UsersHandler {
	return &UsersHandler{
		users:    users,
		authn:    authn,
		tokens:   tokens,
		profiles: profiles,
		log:      log,
	}
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=5"`
	Name     string `json:"name" binding:"max=255"`
}

type TokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Name     *string `json:"name" binding:"omitempty,max=255"`
	Password *string `json:"password" binding:"omitempty,min=5"`
}

const authFailedMessage = "Unable to authenticate with provided credentials"

// POST /users/create/
func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), accountsTimeout)
	defer cancel()

	u, err := h.users.CreateUser(cctx, req.Email, req.Password, accounts.Extra{Name: req.Name})

	if err != nil {
		h.respondAccountsError(ctx, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u.Profile())
}

// POST /users/token/
func (h *UsersHandler) CreateToken(ctx *gin.Context) {
	var req TokenRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), accountsTimeout)
	defer cancel()

	u, err := h.authn.Authenticate(cctx, req.Email, req.Password)

	if err != nil {
		h.respondAccountsError(ctx, err, "Could not authenticate")
		return
	}

	t, err := h.tokens.IssueOrReuse(cctx, u)

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "issue token failed", "user_id", u.ID, "err", err)
		RespondInternal(ctx, "Could not create token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": t.Key,
	})
}

// GET /users/me/
func (h *UsersHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	ctx.JSON(http.StatusOK, h.profiles.GetProfile(u))
}

// PATCH and PUT /users/me/
func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	var req UpdateProfileRequest

	if !BindOptionalJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), accountsTimeout)
	defer cancel()

	updated, err := h.profiles.UpdateProfile(cctx, u, accounts.ProfileUpdate{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})

	if err != nil {
		h.respondAccountsError(ctx, err, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, h.profiles.GetProfile(updated))
}

func (h *UsersHandler) respondAccountsError(ctx *gin.Context, err error, internalMessage string) {
	var vErr *accounts.ValidationError

	switch {
	case errors.As(err, &vErr):
		RespondBadRequest(ctx, "Invalid request body", gin.H{
			"fields": []FieldError{{
				Field:   vErr.Field,
				Rule:    vErr.Rule,
				Message: vErr.Message,
			}},
		})
	case errors.Is(err, accounts.ErrAuthFailed):
		RespondError(ctx, http.StatusBadRequest, "invalid_credentials", authFailedMessage, nil)
	case errors.Is(err, accounts.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	default:
		h.log.ErrorContext(ctx.Request.Context(), "accounts operation failed", "route", ctx.FullPath(), "err", err)
		RespondInternal(ctx, internalMessage)
	}
}
