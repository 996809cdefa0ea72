package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khairulanwar/clinic-api/internal/handler"
	"github.com/khairulanwar/clinic-api/internal/middleware"
	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/service/doctor"
	"github.com/khairulanwar/clinic-api/pkg/httputil"
)

type Handler struct {
	service *doctor.Service
}

func NewHandler(service *doctor.Service) *Handler {
	return &Handler{service: service}
}

// Directory changes are admin-only.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, sessions *middleware.SessionMiddleware) {
	r.POST("/doctors", sessions.Guard(), sessions.RequireRole(model.RoleAdmin), h.Register)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("doctor name is required"))
		return
	}

	d, err := h.service.Register(c.Request.Context(),
		middleware.SessionFrom(c), &req, httputil.ClientIP(c.Request))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httputil.NewSuccessResponse(d))
}
