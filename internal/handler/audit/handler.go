package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/khairulanwar/clinic-api/internal/handler"
	"github.com/khairulanwar/clinic-api/internal/middleware"
	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/service/audit"
	"github.com/khairulanwar/clinic-api/pkg/httputil"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

// Audit listing is admin-only.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, sessions *middleware.SessionMiddleware) {
	r.GET("/audit-logs", sessions.Guard(), sessions.RequireRole(model.RoleAdmin), h.List)
}

func (h *Handler) List(c *gin.Context) {
	page := 1
	if p := c.Query("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid page"))
			return
		}
		page = parsed
	}

	result, err := h.service.ListPage(c.Request.Context(), page)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse(result))
}
