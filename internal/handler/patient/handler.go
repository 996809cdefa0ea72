package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khairulanwar/clinic-api/internal/handler"
	"github.com/khairulanwar/clinic-api/internal/middleware"
	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/service/patient"
	"github.com/khairulanwar/clinic-api/pkg/httputil"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, sessions *middleware.SessionMiddleware) {
	patients := r.Group("/patients", sessions.Guard())
	patients.POST("", h.Register)
	patients.GET("/:id", h.Get)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("name and ic number are required"))
		return
	}

	p, err := h.service.Register(c.Request.Context(),
		middleware.SessionFrom(c), &req, httputil.ClientIP(c.Request))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httputil.NewSuccessResponse(p))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid patient ID"))
		return
	}

	p, err := h.service.Get(c.Request.Context(),
		middleware.SessionFrom(c), id, httputil.ClientIP(c.Request))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse(p))
}
