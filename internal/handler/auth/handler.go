package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khairulanwar/clinic-api/internal/handler"
	"github.com/khairulanwar/clinic-api/internal/middleware"
	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/service/auth"
	"github.com/khairulanwar/clinic-api/pkg/httputil"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, sessions *middleware.SessionMiddleware, limiter gin.HandlerFunc) {
	r.POST("/auth/login", limiter, h.Login)
	r.POST("/auth/logout", sessions.Guard(), h.Logout)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("username and password are required"))
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Username, req.Password, httputil.ClientIP(c.Request))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	if result.Locked {
		resp := httputil.NewErrorResponse("account temporarily locked, try again later")
		resp.Data = result
		c.JSON(http.StatusForbidden, resp)
		return
	}
	if !result.Success {
		// Same response for unknown user, bad password and malformed
		// username.
		c.JSON(http.StatusUnauthorized, httputil.NewErrorResponse("invalid username or password"))
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse(result))
}

func (h *Handler) Logout(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, httputil.NewErrorResponse("access denied"))
		return
	}

	if err := h.service.Logout(c.Request.Context(), sess, httputil.ClientIP(c.Request)); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse(nil))
}
