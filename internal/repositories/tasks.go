package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-tracker/backend/internal/apperr"
	"task-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// TaskRepository is the task store. Every read and write is scoped to the
// owner passed by the caller; a task owned by someone else is indistinguishable
// from a missing one.
type TaskRepository interface {
	List(ctx context.Context, owner uuid.UUID) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, owner, id uuid.UUID, changes map[string]interface{}) (*models.Task, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

type GormTaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// List returns the owner's tasks, newest first.
func (r *GormTaskRepository) List(ctx context.Context, owner uuid.UUID) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("created_at DESC").
		Order("id").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.OwnerID.IsNil() {
		return errors.New("create task: owner is required")
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update applies changes with one conditional UPDATE matching both id and
// owner, then reads the row back inside the same transaction.
func (r *GormTaskRepository) Update(ctx context.Context, owner, id uuid.UUID, changes map[string]interface{}) (*models.Task, error) {
	values := make(map[string]interface{}, len(changes)+1)
	for column, value := range changes {
		values[column] = value
	}
	values["updated_at"] = time.Now().UTC()

	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).
			Where("id = ? AND owner_id = ?", id, owner).
			Updates(values)
		if result.Error != nil {
			return fmt.Errorf("update task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("Task not found")
		}

		if err := tx.Where("id = ? AND owner_id = ?", id, owner).First(&task).Error; err != nil {
			return fmt.Errorf("reload task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, owner).
		Delete(&models.Task{})
	if result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("Task not found")
	}
	return nil
}
