package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves registration, profiles, avatars and subscriptions
type UserHandler struct {
	authService service.IAuthService
	users       service.IUserService
	relations   service.IRelationService
	presenter   *service.Presenter
	pagination  config.PaginationConfig
	log         *logger.Logger
}

func NewUserHandler(
	authService service.IAuthService,
	users service.IUserService,
	relations service.IRelationService,
	presenter *service.Presenter,
	pagination config.PaginationConfig,
	log *logger.Logger,
) *UserHandler {
	return &UserHandler{
		authService: authService,
		users:       users,
		relations:   relations,
		presenter:   presenter,
		pagination:  pagination,
		log:         log,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	required := middleware.RequireAuth(h.authService, h.log)
	optional := middleware.OptionalAuth(h.authService, h.log)

	users := router.Group("/users")
	{
		users.GET("/", optional, h.List)
		users.POST("/", h.Register)
		users.GET("/me/", required, h.Me)
		users.PUT("/me/avatar/", required, h.SetAvatar)
		users.DELETE("/me/avatar/", required, h.ClearAvatar)
		users.POST("/set_password/", required, h.SetPassword)
		users.GET("/subscriptions/", required, h.Subscriptions)
		users.GET("/:id/", optional, h.Get)
		users.POST("/:id/subscribe/", required, h.Subscribe)
		users.DELETE("/:id/subscribe/", required, h.Unsubscribe)
	}
}

func (h *UserHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	page := pageFromQuery(c, h.pagination)

	users, total, err := h.users.List(ctx, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out, err := h.presenter.Users(ctx, middleware.CurrentViewer(c), users)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, page, total, out))
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, types.RegisteredUserResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.writeUser(c, id)
}

func (h *UserHandler) Me(c *gin.Context) {
	h.writeUser(c, middleware.CurrentViewer(c).ID)
}

func (h *UserHandler) writeUser(c *gin.Context, id uint) {
	ctx := c.Request.Context()
	user, err := h.users.Get(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out, err := h.presenter.User(ctx, middleware.CurrentViewer(c), user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	var req types.AvatarRequest
	if !bindJSON(c, &req) {
		return
	}
	url, err := h.users.SetAvatar(c.Request.Context(), middleware.CurrentViewer(c).ID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, types.AvatarResponse{Avatar: url})
}

func (h *UserHandler) ClearAvatar(c *gin.Context) {
	if err := h.users.ClearAvatar(c.Request.Context(), middleware.CurrentViewer(c).ID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.SetPassword(c.Request.Context(), middleware.CurrentViewer(c).ID, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions lists the authors the user follows. ?recipes_limit caps the
// recipes embedded per author.
func (h *UserHandler) Subscriptions(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := middleware.CurrentViewer(c)
	page := pageFromQuery(c, h.pagination)

	authors, total, err := h.users.Subscriptions(ctx, viewer.ID, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out, err := h.presenter.Subscriptions(ctx, viewer, authors, recipesLimit(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, page, total, out))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	viewer := middleware.CurrentViewer(c)

	if err := h.relations.Add(ctx, service.RelationFollow, viewer.ID, authorID); err != nil {
		respondError(c, h.log, err)
		return
	}
	author, err := h.users.Get(ctx, authorID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out, err := h.presenter.Subscription(ctx, viewer, author, recipesLimit(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.relations.Remove(c.Request.Context(), service.RelationFollow, middleware.CurrentViewer(c).ID, authorID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// recipesLimit reads ?recipes_limit; 0 means no limit.
func recipesLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
