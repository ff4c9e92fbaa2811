package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"todolist/internal/model"
)

// ErrTaskNotFound is returned by lookups that match no task.
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository handles CRUD for tasks. It holds no business rules; callers
// narrow queries with scopes.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// All returns an unexecuted query over the whole task table. Each call starts
// a fresh statement, so the result can be narrowed and run more than once.
func (r *TaskRepository) All(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Task{})
}

// Find runs the task query narrowed by scopes, ordered by id.
func (r *TaskRepository) Find(ctx context.Context, scopes ...Scope) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.All(ctx).Scopes(scopes...).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// First returns the lowest-id task matching scopes or ErrTaskNotFound.
func (r *TaskRepository) First(ctx context.Context, scopes ...Scope) (*model.Task, error) {
	var task model.Task
	err := r.All(ctx).Scopes(scopes...).Order("id ASC").First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrTaskNotFound
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	return r.First(ctx, IDEquals(id))
}

// Update persists every column of task and returns it as stored.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) (*model.Task, error) {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Delete(task).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
