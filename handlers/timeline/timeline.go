package timeline

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-timeline/services/timeline"
	"github.com/sahilchouksey/campus-timeline/utils/datenorm"
	"github.com/sahilchouksey/campus-timeline/utils/middleware"
	"github.com/sahilchouksey/campus-timeline/utils/response"
	"github.com/sahilchouksey/campus-timeline/utils/validation"
)

// TimelineHandler serves the authenticated student's derived views
type TimelineHandler struct {
	service   *timeline.Service
	validator *validation.Validator
	now       func() time.Time
}

// NewTimelineHandler creates a new timeline handler
func NewTimelineHandler(service *timeline.Service) *TimelineHandler {
	return &TimelineHandler{
		service:   service,
		validator: validation.NewValidator(),
		now:       time.Now,
	}
}

// TodayQuery represents the query parameters of GET /api/v1/me/today
type TodayQuery struct {
	Date string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Demo bool   `query:"demo"`
}

// GetToday handles GET /api/v1/me/today
func (h *TimelineHandler) GetToday(c *fiber.Ctx) error {
	studentID := middleware.GetStudentID(c)
	if studentID == "" {
		return response.Unauthorized(c, "")
	}

	var q TodayQuery
	if err := c.QueryParser(&q); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		return response.ValidationError(c, err)
	}

	now := h.now()
	if q.Date != "" {
		day, err := time.ParseInLocation(datenorm.Layout, q.Date, h.service.Location())
		if err != nil {
			return response.BadRequest(c, "Invalid date")
		}
		now = day
	}

	result := h.service.TodaysClasses(c.UserContext(), studentID, now, q.Demo)
	return response.Degraded(c, result, len(result.Notices) > 0)
}

// GetSchedule handles GET /api/v1/me/schedule
func (h *TimelineHandler) GetSchedule(c *fiber.Ctx) error {
	studentID := middleware.GetStudentID(c)
	if studentID == "" {
		return response.Unauthorized(c, "")
	}
	result := h.service.MySchedule(c.UserContext(), studentID)
	return response.Degraded(c, result, len(result.Notices) > 0)
}

// GetCourses handles GET /api/v1/me/courses
func (h *TimelineHandler) GetCourses(c *fiber.Ctx) error {
	studentID := middleware.GetStudentID(c)
	if studentID == "" {
		return response.Unauthorized(c, "")
	}
	result := h.service.MyCourses(c.UserContext(), studentID)
	return response.Degraded(c, result, len(result.Notices) > 0)
}

// GetMaterials handles GET /api/v1/me/materials
func (h *TimelineHandler) GetMaterials(c *fiber.Ctx) error {
	studentID := middleware.GetStudentID(c)
	if studentID == "" {
		return response.Unauthorized(c, "")
	}
	result := h.service.MyMaterials(c.UserContext(), studentID)
	return response.Degraded(c, result, len(result.Notices) > 0)
}
