package service

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"todolist/internal/model"
	"todolist/internal/repository"
)

const (
	msgTaskCreated       = "Задача добавлена"
	msgTaskAlreadyExists = "Задача с таким именем уже существует"
	msgTaskNotFound      = "Задача не найдена"
	msgTaskEnded         = "Задача выполнена"

	releaseTimeout = 5 * time.Second
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CreateTaskInput represents data required to create a task.
type CreateTaskInput struct {
	Name        string
	Description string
	Priority    model.Priority
}

func (in CreateTaskInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "Введите название задачи"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return &ValidationError{Field: "description", Message: "Введите описание задачи"}
	}
	if !in.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: "Неизвестный приоритет"}
	}
	return nil
}

// TaskFilter narrows the open task listing. Zero fields are ignored.
type TaskFilter struct {
	Name     string
	Priority *model.Priority
}

func (f TaskFilter) priority() model.Priority {
	if f.Priority == nil {
		return 0
	}
	return *f.Priority
}

// NameGuard atomically reserves a task name for a calendar day.
type NameGuard interface {
	Reserve(ctx context.Context, day time.Time, name string) (bool, error)
	Release(ctx context.Context, day time.Time, name string) error
}

// TaskService wraps task-related business logic. Every operation reports its
// outcome through a Response; failures never escape as errors.
type TaskService struct {
	taskRepo *repository.TaskRepository
	guard    NameGuard
	logger   *log.Logger
	now      func() time.Time
	loc      *time.Location
}

type Option func(*TaskService)

// WithNameGuard closes the race between the duplicate check and the insert
// in Create. Without a guard two concurrent creates may both succeed. The
// guard fails open: when it errors, Create falls back to the database check.
func WithNameGuard(g NameGuard) Option {
	return func(s *TaskService) { s.guard = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

// WithLocation sets the zone whose calendar defines "today" and in which
// dates are rendered.
func WithLocation(loc *time.Location) Option {
	return func(s *TaskService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewTaskService(taskRepo *repository.TaskRepository, logger *log.Logger, opts ...Option) *TaskService {
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &TaskService{
		taskRepo: taskRepo,
		logger:   logger,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock reading in its location.
func (s *TaskService) Now() time.Time {
	return s.now().In(s.loc)
}

// Create validates input and stores a new open task unless a task with the
// same name was already created today.
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) Response[*model.Task] {
	const op = "TaskService.Create"
	fields := log.Fields{"task_name": input.Name}

	if err := input.Validate(); err != nil {
		return failure[*model.Task](s.logger, op, err, fields)
	}

	s.logger.WithFields(fields).Info("create task requested")

	now := s.Now()
	_, err := s.taskRepo.First(ctx, repository.CreatedOn(now), repository.NameEquals(input.Name))
	switch {
	case err == nil:
		return Response[*model.Task]{StatusCode: StatusTaskAlreadyExists, Description: msgTaskAlreadyExists}
	case !errors.Is(err, repository.ErrTaskNotFound):
		return failure[*model.Task](s.logger, op, err, fields)
	}

	reserved := false
	if s.guard != nil {
		ok, err := s.guard.Reserve(ctx, now, input.Name)
		switch {
		case err != nil:
			s.logger.WithFields(fields).WithError(err).Warn("name guard unavailable, relying on database check")
		case !ok:
			return Response[*model.Task]{StatusCode: StatusTaskAlreadyExists, Description: msgTaskAlreadyExists}
		default:
			reserved = true
		}
	}

	task := &model.Task{
		Name:        input.Name,
		Description: input.Description,
		IsDone:      false,
		Priority:    input.Priority,
		CreatedAt:   now.UTC(),
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		if reserved {
			s.release(ctx, now, input.Name, fields)
		}
		return failure[*model.Task](s.logger, op, err, fields)
	}

	s.logger.WithFields(log.Fields{"task_id": task.ID, "task_name": task.Name}).Info("task created")
	return Response[*model.Task]{StatusCode: StatusOK, Description: msgTaskCreated, Data: task}
}

// release drops a reservation whose insert failed, even when the request
// context is already canceled.
func (s *TaskService) release(ctx context.Context, day time.Time, name string, fields log.Fields) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := s.guard.Release(ctx, day, name); err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("release task name")
	}
}

// EndTask marks the task done. Ending an already finished task succeeds
// again without changing it.
func (s *TaskService) EndTask(ctx context.Context, id uint) Response[bool] {
	const op = "TaskService.EndTask"
	fields := log.Fields{"task_id": id}

	task, err := s.taskRepo.FindByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrTaskNotFound):
		return Response[bool]{StatusCode: StatusTaskNotFound, Description: msgTaskNotFound}
	case err != nil:
		return failure[bool](s.logger, op, err, fields)
	}

	task.IsDone = true
	if _, err := s.taskRepo.Update(ctx, task); err != nil {
		return failure[bool](s.logger, op, err, fields)
	}

	s.logger.WithFields(fields).Info("task ended")
	return Response[bool]{StatusCode: StatusOK, Description: msgTaskEnded, Data: true}
}

// GetTasks lists open tasks, optionally narrowed by exact name and priority.
func (s *TaskService) GetTasks(ctx context.Context, filter TaskFilter) Response[[]TaskView] {
	const op = "TaskService.GetTasks"

	tasks, err := s.taskRepo.Find(ctx,
		repository.Done(false),
		repository.WhenIf(strings.TrimSpace(filter.Name) != "", repository.NameEquals(filter.Name)),
		repository.WhenIf(filter.Priority != nil, repository.PriorityEquals(filter.priority())),
	)
	if err != nil {
		return failure[[]TaskView](s.logger, op, err, log.Fields{"filter_name": filter.Name})
	}

	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, newTaskView(task, s.loc))
	}
	return Response[[]TaskView]{StatusCode: StatusOK, Data: views}
}

// GetCompletedTasks lists tasks created and finished today.
func (s *TaskService) GetCompletedTasks(ctx context.Context) Response[[]CompletedTaskView] {
	const op = "TaskService.GetCompletedTasks"

	tasks, err := s.taskRepo.Find(ctx, repository.Done(true), repository.CreatedOn(s.Now()))
	if err != nil {
		return failure[[]CompletedTaskView](s.logger, op, err, nil)
	}

	views := make([]CompletedTaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, newCompletedTaskView(task))
	}
	return Response[[]CompletedTaskView]{StatusCode: StatusOK, Data: views}
}

// CalculateCompletedTask builds the end-of-day report rows: every task
// created today, finished or not.
func (s *TaskService) CalculateCompletedTask(ctx context.Context) Response[[]TaskReportRow] {
	const op = "TaskService.CalculateCompletedTask"

	tasks, err := s.taskRepo.Find(ctx, repository.CreatedOn(s.Now()))
	if err != nil {
		return failure[[]TaskReportRow](s.logger, op, err, nil)
	}

	rows := make([]TaskReportRow, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, newTaskReportRow(task, s.loc))
	}
	return Response[[]TaskReportRow]{StatusCode: StatusOK, Data: rows}
}
