package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khairulanwar/clinic-api/internal/handler"
	"github.com/khairulanwar/clinic-api/internal/middleware"
	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/service/scheduling"
	"github.com/khairulanwar/clinic-api/pkg/httputil"
)

type Handler struct {
	service *scheduling.Service
}

func NewHandler(service *scheduling.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, sessions *middleware.SessionMiddleware) {
	appointments := r.Group("/appointments", sessions.Guard())
	appointments.POST("", h.Schedule)
	appointments.GET("", h.List)
	appointments.GET("/:id", h.Get)
	appointments.PUT("/:id", h.Edit)
	appointments.DELETE("/:id", h.Cancel)
}

func (h *Handler) Schedule(c *gin.Context) {
	var req model.ScheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("all fields are required"))
		return
	}

	appointment, err := h.service.Schedule(c.Request.Context(),
		middleware.SessionFrom(c), &req, httputil.ClientIP(c.Request))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httputil.NewSuccessResponse(appointment))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid appointment ID"))
		return
	}

	appointment, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse(appointment))
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AppointmentFilters{}

	if id := c.Query("doctor_id"); id != "" {
		doctorID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid doctor ID"))
			return
		}
		filters.DoctorID = &doctorID
	}
	if id := c.Query("patient_id"); id != "" {
		patientID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid patient ID"))
			return
		}
		filters.PatientID = &patientID
	}
	if day := c.Query("date"); day != "" {
		from, err := time.ParseInLocation("2006-01-02", day, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid date"))
			return
		}
		filters.From = from
		filters.To = from.Add(24 * time.Hour)
	}

	appointments, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse(appointments))
}

func (h *Handler) Edit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.EditAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("all fields are required"))
		return
	}

	appointment, err := h.service.Edit(c.Request.Context(), middleware.SessionFrom(c),
		id, &req, httputil.ClientIP(c.Request))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse(appointment))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid appointment ID"))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), middleware.SessionFrom(c),
		id, httputil.ClientIP(c.Request)); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse(nil))
}
