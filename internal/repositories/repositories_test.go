package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"task-tracker/backend/internal/apperr"
	"task-tracker/backend/internal/database"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm/logger"
)

type RepositorySuite struct {
	suite.Suite
	pool  *database.DatabasePool
	users *repositories.GormUserRepository
	tasks *repositories.GormTaskRepository
	ctx   context.Context
}

func (s *RepositorySuite) SetupTest() {
	config := database.DefaultPoolConfig()
	config.Driver = database.DriverSQLite
	config.DSN = ":memory:"
	config.LogLevel = logger.Silent

	pool, err := database.NewDatabasePool(config)
	s.Require().NoError(err)
	s.Require().NoError(pool.Migrate(context.Background()))

	s.pool = pool
	s.users = repositories.NewUserRepository(pool.DB)
	s.tasks = repositories.NewTaskRepository(pool.DB)
	s.ctx = context.Background()
}

func (s *RepositorySuite) TearDownTest() {
	s.pool.Close()
}

func (s *RepositorySuite) newUser(email string) *models.User {
	user := &models.User{
		ID:    uuid.Must(uuid.NewV4()),
		Name:  "Ann",
		Email: email,
	}
	s.Require().NoError(user.SetPassword("secret1", 4))
	s.Require().NoError(s.users.Create(s.ctx, user))
	return user
}

func (s *RepositorySuite) newTask(owner uuid.UUID, title string) *models.Task {
	task, err := models.TaskInput{Title: title}.NewTask(owner)
	s.Require().NoError(err)
	s.Require().NoError(s.tasks.Create(s.ctx, &task))
	return &task
}

func (s *RepositorySuite) TestUserCreateAndFind() {
	user := s.newUser("ann@x.com")

	byEmail, err := s.users.FindByEmail(s.ctx, "ann@x.com")
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.ID)
	s.Equal(user.PasswordHash, byEmail.PasswordHash)

	byID, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("ann@x.com", byID.Email)

	exists, err := s.users.EmailExists(s.ctx, "ann@x.com")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *RepositorySuite) TestUserDuplicateEmailMapsToDuplicateKind() {
	s.newUser("dup@x.com")

	again := &models.User{ID: uuid.Must(uuid.NewV4()), Name: "Bob", Email: "dup@x.com", PasswordHash: "x"}
	err := s.users.Create(s.ctx, again)

	s.Require().Error(err)
	s.True(errors.Is(err, apperr.ErrDuplicateEmail))
}

func (s *RepositorySuite) TestUserNotFound() {
	_, err := s.users.FindByEmail(s.ctx, "nobody@x.com")
	s.True(errors.Is(err, apperr.ErrNotFound))

	_, err = s.users.FindByID(s.ctx, uuid.Must(uuid.NewV4()))
	s.True(errors.Is(err, apperr.ErrNotFound))
}

func (s *RepositorySuite) TestUserUpdate() {
	user := s.newUser("upd@x.com")
	user.Name = "Annie"
	s.Require().NoError(s.users.Update(s.ctx, user))

	stored, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("Annie", stored.Name)
	s.Equal(user.PasswordHash, stored.PasswordHash)

	ghost := &models.User{ID: uuid.Must(uuid.NewV4()), Name: "Ghost"}
	s.True(errors.Is(s.users.Update(s.ctx, ghost), apperr.ErrNotFound))
}

func (s *RepositorySuite) TestTaskListIsOwnerScopedNewestFirst() {
	owner := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	first := s.newTask(owner, "first")
	time.Sleep(5 * time.Millisecond)
	second := s.newTask(owner, "second")
	s.newTask(other, "not mine")

	tasks, err := s.tasks.List(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(tasks, 2)
	s.Equal(second.ID, tasks[0].ID)
	s.Equal(first.ID, tasks[1].ID)
	for _, task := range tasks {
		s.Equal(owner, task.OwnerID)
	}
}

func (s *RepositorySuite) TestTaskListEmptyIsNotNil() {
	tasks, err := s.tasks.List(s.ctx, uuid.Must(uuid.NewV4()))
	s.Require().NoError(err)
	s.NotNil(tasks)
	s.Empty(tasks)
}

func (s *RepositorySuite) TestTaskCreateRequiresOwner() {
	task := &models.Task{ID: uuid.Must(uuid.NewV4()), Title: "orphan", Status: models.StatusPending}
	s.Error(s.tasks.Create(s.ctx, task))
}

func (s *RepositorySuite) TestTaskUpdate() {
	owner := uuid.Must(uuid.NewV4())
	task := s.newTask(owner, "Buy milk")

	updated, err := s.tasks.Update(s.ctx, owner, task.ID, map[string]interface{}{"status": models.StatusCompleted})
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, updated.Status)
	s.Equal("Buy milk", updated.Title)
	s.False(updated.UpdatedAt.Before(task.UpdatedAt))
}

func (s *RepositorySuite) TestTaskUpdateClearsDueDate() {
	owner := uuid.Must(uuid.NewV4())
	due := "2030-01-02"
	task, err := models.TaskInput{Title: "Dated", DueDate: &due}.NewTask(owner)
	s.Require().NoError(err)
	s.Require().NoError(s.tasks.Create(s.ctx, &task))

	updated, err := s.tasks.Update(s.ctx, owner, task.ID, map[string]interface{}{"due_date": nil})
	s.Require().NoError(err)
	s.Nil(updated.DueDate)
}

func (s *RepositorySuite) TestTaskUpdateForeignOwnerIsNotFound() {
	owner := uuid.Must(uuid.NewV4())
	task := s.newTask(owner, "mine")

	_, err := s.tasks.Update(s.ctx, uuid.Must(uuid.NewV4()), task.ID, map[string]interface{}{"title": "stolen"})
	s.True(errors.Is(err, apperr.ErrNotFound))

	tasks, err := s.tasks.List(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal("mine", tasks[0].Title)
}

func (s *RepositorySuite) TestTaskDelete() {
	owner := uuid.Must(uuid.NewV4())
	task := s.newTask(owner, "temp")

	s.True(errors.Is(s.tasks.Delete(s.ctx, uuid.Must(uuid.NewV4()), task.ID), apperr.ErrNotFound))

	s.Require().NoError(s.tasks.Delete(s.ctx, owner, task.ID))
	s.True(errors.Is(s.tasks.Delete(s.ctx, owner, task.ID), apperr.ErrNotFound))

	tasks, err := s.tasks.List(s.ctx, owner)
	s.Require().NoError(err)
	s.Empty(tasks)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func TestTaskRepository_ConcurrentUpdatesStayConsistent(t *testing.T) {
	config := database.DefaultPoolConfig()
	config.Driver = database.DriverSQLite
	config.DSN = ":memory:"
	config.LogLevel = logger.Silent

	pool, err := database.NewDatabasePool(config)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, pool.Migrate(context.Background()))

	repo := repositories.NewTaskRepository(pool.DB)
	owner := uuid.Must(uuid.NewV4())
	task, err := models.TaskInput{Title: "race"}.NewTask(owner)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &task))

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		status := models.StatusPending
		if i%2 == 0 {
			status = models.StatusCompleted
		}
		go func(status models.TaskStatus) {
			_, err := repo.Update(context.Background(), owner, task.ID, map[string]interface{}{"status": status})
			done <- err
		}(status)
	}
	for i := 0; i < 10; i++ {
		assert.NoError(t, <-done)
	}

	tasks, err := repo.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Contains(t, []models.TaskStatus{models.StatusPending, models.StatusCompleted}, tasks[0].Status)
}
