package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"todolist/internal/model"
	"todolist/internal/service"
)

// TaskService is the behaviour the controller needs from the service layer.
type TaskService interface {
	Create(ctx context.Context, input service.CreateTaskInput) service.Response[*model.Task]
	EndTask(ctx context.Context, id uint) service.Response[bool]
	GetTasks(ctx context.Context, filter service.TaskFilter) service.Response[[]service.TaskView]
	GetCompletedTasks(ctx context.Context) service.Response[[]service.CompletedTaskView]
	CalculateCompletedTask(ctx context.Context) service.Response[[]service.TaskReportRow]
	Now() time.Time
}

// Pinger reports whether the backing store is reachable.
type Pinger func(ctx context.Context) error

const (
	msgInvalidBody     = "invalid body"
	msgInvalidPriority = "Неизвестный приоритет"
	msgInvalidID       = "Некорректный идентификатор задачи"
)

type descriptionResponse struct {
	Description string `json:"description"`
}

type dataResponse[T any] struct {
	Data T `json:"data"`
}

type createTaskRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Priority    param  `json:"priority" form:"priority"`
}

type endTaskRequest struct {
	ID param `json:"id" form:"id"`
}

type taskFilterRequest struct {
	Name     string `json:"name" form:"name"`
	Priority param  `json:"priority" form:"priority"`
}

// NewServer builds an Echo instance with the task routes and the shared
// middleware stack.
func NewServer(tasks TaskService, ping Pinger, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	Register(e, tasks, ping, logger)
	return e
}

// Register wires up all task routes on the provided Echo instance.
func Register(e *echo.Echo, tasks TaskService, ping Pinger, logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	e.POST("/Task/Create", createTask(tasks, logger))
	e.POST("/Task/EndTask", endTask(tasks, logger))
	e.POST("/Task/TaskHandler", getTasks(tasks, logger))
	e.Match([]string{http.MethodGet, http.MethodPost}, "/Task/GetCompletedTasks", getCompletedTasks(tasks, logger))
	e.POST("/Task/CalculateCompletedTask", calculateCompletedTask(tasks, logger))
	e.GET("/healthz", healthz(ping))
}

func healthz(ping Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping == nil {
			return c.NoContent(http.StatusOK)
		}
		if err := ping(c.Request().Context()); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	}
}

func badRequest(c echo.Context, description string) error {
	return c.JSON(http.StatusBadRequest, descriptionResponse{Description: description})
}

// statusResponse maps a service outcome onto the two HTTP buckets.
func statusResponse[T any](c echo.Context, resp service.Response[T]) error {
	if resp.OK() {
		return c.JSON(http.StatusOK, descriptionResponse{Description: resp.Description})
	}
	return badRequest(c, resp.Description)
}

func dataOrBadRequest[T any](c echo.Context, resp service.Response[T]) error {
	if resp.OK() {
		return c.JSON(http.StatusOK, dataResponse[T]{Data: resp.Data})
	}
	return badRequest(c, resp.Description)
}

func createTask(tasks TaskService, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		obs, ctx := observe(c, logger, "/Task/Create")
		defer func() { obs.End(c, err) }()

		var req createTaskRequest
		if bindErr := c.Bind(&req); bindErr != nil {
			obs.SetErrorStage("bind")
			return badRequest(c, msgInvalidBody)
		}
		priority := model.PriorityLow
		if !req.Priority.blank() {
			p, parseErr := req.Priority.priority()
			if parseErr != nil {
				obs.SetErrorStage("priority")
				return badRequest(c, msgInvalidPriority)
			}
			priority = p
		}

		resp := tasks.Create(ctx, service.CreateTaskInput{
			Name:        req.Name,
			Description: req.Description,
			Priority:    priority,
		})
		obs.SetStatus(resp.StatusCode.String())
		return statusResponse(c, resp)
	}
}

func endTask(tasks TaskService, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		obs, ctx := observe(c, logger, "/Task/EndTask")
		defer func() { obs.End(c, err) }()

		var req endTaskRequest
		if bindErr := c.Bind(&req); bindErr != nil {
			obs.SetErrorStage("bind")
			return badRequest(c, msgInvalidBody)
		}
		if req.ID.blank() {
			req.ID = param(c.QueryParam("id"))
		}
		id, parseErr := req.ID.id()
		if parseErr != nil {
			obs.SetErrorStage("id")
			return badRequest(c, msgInvalidID)
		}

		resp := tasks.EndTask(ctx, id)
		obs.SetStatus(resp.StatusCode.String())
		return statusResponse(c, resp)
	}
}

func getTasks(tasks TaskService, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		obs, ctx := observe(c, logger, "/Task/TaskHandler")
		defer func() { obs.End(c, err) }()

		var req taskFilterRequest
		if bindErr := c.Bind(&req); bindErr != nil {
			obs.SetErrorStage("bind")
			return badRequest(c, msgInvalidBody)
		}
		filter := service.TaskFilter{Name: req.Name}
		if !req.Priority.blank() {
			p, parseErr := req.Priority.priority()
			if parseErr != nil {
				obs.SetErrorStage("priority")
				return badRequest(c, msgInvalidPriority)
			}
			filter.Priority = &p
		}

		resp := tasks.GetTasks(ctx, filter)
		obs.SetStatus(resp.StatusCode.String())
		obs.SetResults(len(resp.Data))
		return dataOrBadRequest(c, resp)
	}
}

func getCompletedTasks(tasks TaskService, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		obs, ctx := observe(c, logger, "/Task/GetCompletedTasks")
		defer func() { obs.End(c, err) }()

		resp := tasks.GetCompletedTasks(ctx)
		obs.SetStatus(resp.StatusCode.String())
		obs.SetResults(len(resp.Data))
		return dataOrBadRequest(c, resp)
	}
}

func calculateCompletedTask(tasks TaskService, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		obs, ctx := observe(c, logger, "/Task/CalculateCompletedTask")
		defer func() { obs.End(c, err) }()

		resp := tasks.CalculateCompletedTask(ctx)
		obs.SetStatus(resp.StatusCode.String())
		if !resp.OK() {
			return badRequest(c, resp.Description)
		}
		obs.SetResults(len(resp.Data))

		data, renderErr := service.RenderReport(resp.Data)
		if renderErr != nil {
			obs.SetErrorStage("render")
			return badRequest(c, renderErr.Error())
		}

		c.Response().Header().Set(echo.HeaderContentDisposition, attachment(service.ReportFileName(tasks.Now())))
		return c.Blob(http.StatusOK, "text/csv", data)
	}
}

// attachment builds a Content-Disposition value that keeps the non-ASCII
// file name for clients supporting RFC 6266 and an ASCII fallback otherwise.
func attachment(name string) string {
	return fmt.Sprintf(`attachment; filename="report.csv"; filename*=UTF-8''%s`, url.PathEscape(name))
}
