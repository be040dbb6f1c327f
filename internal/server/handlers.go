package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/julianstephens/cadence/internal/models"
)

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// queryID parses an optional numeric query parameter
func queryID(c echo.Context, name string) (*int64, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}

func (s *Server) health(c echo.Context) error {
	if err := s.store.DB().PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "driver": s.store.Driver()})
}

func (s *Server) listHabits(c echo.Context) error {
	overview, err := s.store.Habits().Overview(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": overview})
}

type createHabitRequest struct {
	Name        string   `json:"name"`
	Periodicity string   `json:"periodicity"`
	Template    []string `json:"template"`
}

func (s *Server) createHabit(c echo.Context) error {
	var body createHabitRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	p, err := models.ParsePeriodicity(body.Periodicity)
	if err != nil {
		return respondError(c, err)
	}
	habit, err := s.store.Habits().Create(c.Request().Context(), strings.TrimSpace(body.Name), p, body.Template)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, habit)
}

func (s *Server) getHabit(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx := c.Request().Context()
	habit, err := s.store.Habits().Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	tasks, err := s.store.Tasks().ForHabit(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"habit": habit, "tasks": tasks})
}

func (s *Server) deleteHabit(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := s.store.Habits().Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listTasks(c echo.Context) error {
	habitID, ok := queryID(c, "habit_id")
	if !ok {
		return badRequest(c, "invalid habit_id")
	}
	tasks, err := s.store.Tasks().List(c.Request().Context(), habitID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": tasks})
}

func (s *Server) completeTask(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	task, err := s.engine.CompleteTask(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) sync(c echo.Context) error {
	res, err := s.engine.Sync(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) listReports(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		reports []models.Report
		err     error
	)
	if raw := c.QueryParam("periodicity"); raw != "" {
		p, perr := models.ParsePeriodicity(raw)
		if perr != nil {
			return respondError(c, perr)
		}
		reports, err = s.store.Reports().ListByPeriodicity(ctx, p)
	} else {
		reports, err = s.store.Reports().List(ctx)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": reports})
}

func (s *Server) latestReports(c echo.Context) error {
	reports, err := s.store.Reports().LatestPerHabit(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": reports})
}

func (s *Server) longestStreak(c echo.Context) error {
	habitID, ok := queryID(c, "habit_id")
	if !ok {
		return badRequest(c, "invalid habit_id")
	}
	var (
		stat models.StreakStat
		err  error
	)
	if habitID != nil {
		stat, err = s.store.Reports().MaxStreakForHabit(c.Request().Context(), *habitID)
	} else {
		stat, err = s.store.Reports().MaxStreak(c.Request().Context())
	}
	return respondStreak(c, stat, err)
}

func (s *Server) shortestStreak(c echo.Context) error {
	stat, err := s.store.Reports().MinPositiveStreak(c.Request().Context())
	return respondStreak(c, stat, err)
}

func respondStreak(c echo.Context, stat models.StreakStat, err error) error {
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stat)
}

