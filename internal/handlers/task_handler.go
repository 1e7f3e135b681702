package handlers

import (
	"errors"
	"time"

	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/23f2003700/padosi-politics/internal/scheduler"
	"github.com/23f2003700/padosi-politics/internal/services"
	"github.com/gofiber/fiber/v2"
)

// TaskHandler lets an external cron trigger scheduled jobs on demand.
type TaskHandler struct {
	runner *scheduler.Runner
	jobs   *services.JobsService
}

func NewTaskHandler(runner *scheduler.Runner, jobs *services.JobsService) *TaskHandler {
	return &TaskHandler{runner: runner, jobs: jobs}
}

func (h *TaskHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"jobs":        h.runner.Names(),
		"server_time": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *TaskHandler) Run(c *fiber.Ctx) error {
	name := c.Params("job")
	res, err := h.runner.RunJob(c.UserContext(), name, time.Now().UTC())
	if errors.Is(err, scheduler.ErrUnknownJob) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Unknown job " + name,
		})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"job": name, "result": res})
}

// MonthlyBonus awards the monthly karma bonus for an explicit YYYY-MM month,
// defaulting to the previous one.
func (h *TaskHandler) MonthlyBonus(c *fiber.Ctx) error {
	var req dto.MonthlyBonusRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	month := scheduler.PreviousMonth(time.Now())
	if req.Month != "" {
		m, err := time.Parse("2006-01", req.Month)
		if err != nil {
			return respondError(c, services.FieldError("month", "month must be YYYY-MM"))
		}
		month = m
	}

	awarded, err := h.jobs.ApplyMonthlyKarmaBonus(c.UserContext(), month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"month": month.Format("2006-01"), "awarded": awarded})
}
