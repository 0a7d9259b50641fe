package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/account-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/account-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/account-gateway/internal/adapters/oauth"
	"github.com/jsamuelsen/account-gateway/internal/app"
	"github.com/jsamuelsen/account-gateway/internal/domain"
)

// AccountOperations is the part of the account service the users API needs.
type AccountOperations interface {
	Register(ctx context.Context, email, password string) (*domain.Account, error)
	ForgetPassword(ctx context.Context, email string) error
	CurrentAccount(ctx context.Context, id string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account, req app.UpdateRequest) (*domain.Account, error)
}

// AccountLinker links the signed-in account to an identity provider.
type AccountLinker interface {
	LinkCurrentAccount(ctx context.Context, current *domain.Account, accessToken string) (*domain.Account, error)
}

// UsersHandlerConfig configures a UsersHandler.
type UsersHandlerConfig struct {
	Accounts AccountOperations
	Linker   AccountLinker
	Renderer *dto.Renderer

	// Provider is the identity provider machine name. It names the sync
	// route (sync_<provider>) and its token parameter (<provider>_token).
	Provider string
}

// UsersHandler handles the /api/v1/users endpoints.
type UsersHandler struct {
	accounts AccountOperations
	linker   AccountLinker
	render   *dto.Renderer
	provider string
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(cfg UsersHandlerConfig) *UsersHandler {
	render := cfg.Renderer
	if render == nil {
		render = dto.NewRenderer(dto.RendererConfig{})
	}

	return &UsersHandler{
		accounts: cfg.Accounts,
		linker:   cfg.Linker,
		render:   render,
		provider: cfg.Provider,
	}
}

// UserResponse is the client view of an account.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Verified  bool   `json:"verified"`
	Linked    bool   `json:"linked"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(a *domain.Account) *UserResponse {
	return &UserResponse{
		ID:        a.ID,
		Email:     a.Email,
		Verified:  a.Verified,
		Linked:    a.IsLinked(),
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// updateUserRequest is the PUT /me body. Password rules are checked by the
// account service; the limits here only reject absurd input early.
type updateUserRequest struct {
	Email       string `json:"email" form:"email" validate:"omitempty,max=254"`
	Password    string `json:"password" form:"password" validate:"omitempty,max=128"`
	OldPassword string `json:"old_password" form:"old_password"`
}

// Register handles POST /api/v1/users.
func (h *UsersHandler) Register(c *gin.Context) {
	outcome := h.render.RequireParams(c, "email", "password")
	if outcome.Halted() {
		return
	}

	params := outcome.Value()

	if _, err := h.accounts.Register(c.Request.Context(), params.String("email"), params.String("password")); err != nil {
		_ = c.Error(err)
		return
	}

	h.render.Success(c, "", nil)
}

// ForgetPassword handles POST /api/v1/users/forget_password.
// An absent email is answered like an unknown one.
func (h *UsersHandler) ForgetPassword(c *gin.Context) {
	email := dto.ReadParams(c).String("email")

	if err := h.accounts.ForgetPassword(c.Request.Context(), email); err != nil {
		_ = c.Error(err)
		return
	}

	h.render.Success(c, "", nil)
}

// Me handles GET /api/v1/users/me.
func (h *UsersHandler) Me(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	h.render.Success(c, "", map[string]any{"user": toUserResponse(account)})
}

// Update handles PUT /api/v1/users/me.
func (h *UsersHandler) Update(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	_, err := h.accounts.Update(c.Request.Context(), account, app.UpdateRequest{
		Email:       req.Email,
		Password:    req.Password,
		OldPassword: req.OldPassword,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.render.Success(c, "", nil)
}

// SyncProvider handles POST /api/v1/users/sync_<provider>.
func (h *UsersHandler) SyncProvider(c *gin.Context) {
	outcome := h.render.RequireParams(c, h.tokenParam())
	if outcome.Halted() {
		return
	}

	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	token := outcome.Value().String(h.tokenParam())

	if _, err := h.linker.LinkCurrentAccount(c.Request.Context(), account, token); err != nil {
		_ = c.Error(err)
		return
	}

	h.render.Success(c, "", nil)
}

// RegisterUserRoutes registers the users routes. authorize guards the
// routes that act on the signed-in account.
func (h *UsersHandler) RegisterUserRoutes(rg *gin.RouterGroup, authorize gin.HandlerFunc) {
	users := rg.Group("/users")
	users.POST("", h.Register)
	users.POST("/forget_password", h.ForgetPassword)

	owner := users.Group("", authorize)
	owner.GET("/me", h.Me)
	owner.PUT("/me", h.Update)
	owner.POST("/sync_"+h.provider, h.SyncProvider)
}

func (h *UsersHandler) tokenParam() string {
	return h.provider + "_token"
}

func (h *UsersHandler) currentAccount(c *gin.Context) (*domain.Account, bool) {
	subject, ok := middleware.Subject(c)
	if !ok {
		_ = c.Error(oauth.ErrInvalidToken)
		return nil, false
	}

	account, err := h.accounts.CurrentAccount(c.Request.Context(), subject)
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}

	return account, true
}
