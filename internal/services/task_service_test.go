package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/taskwave-api/internal/models"
	"github.com/yukikurage/taskwave-api/internal/repository"
)

type TaskServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	repo    repository.TaskRepository
	service *TaskService
	userID  string
}

func (suite *TaskServiceTestSuite) SetupTest() {
	db := newTestDB(suite.T())
	suite.ctx = context.Background()
	suite.repo = repository.NewTaskRepository(db)
	suite.service = NewTaskService(suite.repo, nil, fixedCalendar())
	suite.userID = createUser(suite.T(), repository.NewUserRepository(db), "a@x.com").ID
}

func (suite *TaskServiceTestSuite) create(title string, due time.Time, completed bool) *models.Task {
	task := &models.Task{
		UserID:      suite.userID,
		Title:       title,
		Description: "D",
		Priority:    models.PriorityHigh,
		DueDate:     due.UTC(),
		Completed:   completed,
	}
	suite.Require().NoError(suite.repo.Create(suite.ctx, task))
	return task
}

func (suite *TaskServiceTestSuite) titles(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func (suite *TaskServiceTestSuite) TestCreateTask_DueToday() {
	task, err := suite.service.CreateTask(suite.ctx, CreateTaskInput{
		UserID:      suite.userID,
		Title:       "T",
		Description: "D",
		Priority:    "high",
		DueDate:     "2024-05-10",
	})
	suite.Require().NoError(err)
	suite.Equal(models.PriorityHigh, task.Priority)

	stats, err := suite.service.Stats(suite.ctx, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(TaskStats{Total: 1, Completed: 0, Pending: 1, Missed: 0}, *stats)
}

func (suite *TaskServiceTestSuite) TestCreateTask_EarlierTodayIsAccepted() {
	_, err := suite.service.CreateTask(suite.ctx, CreateTaskInput{
		UserID:      suite.userID,
		Title:       "T",
		Description: "D",
		Priority:    "low",
		DueDate:     "2024-05-10T01:00:00Z",
	})
	suite.NoError(err)
}

func (suite *TaskServiceTestSuite) TestCreateTask_Validation() {
	base := CreateTaskInput{UserID: suite.userID, Title: "T", Description: "D", Priority: "high", DueDate: "2024-05-11"}

	cases := map[string]struct {
		mutate func(*CreateTaskInput)
		want   error
	}{
		"past due date":     {func(in *CreateTaskInput) { in.DueDate = "2024-05-09" }, ErrDueDateInPast},
		"garbage due date":  {func(in *CreateTaskInput) { in.DueDate = "soon" }, ErrInvalidDueDate},
		"blank title":       {func(in *CreateTaskInput) { in.Title = "  " }, ErrTitleRequired},
		"blank description": {func(in *CreateTaskInput) { in.Description = "" }, ErrDescriptionRequired},
		"bad priority":      {func(in *CreateTaskInput) { in.Priority = "urgent" }, ErrInvalidPriority},
	}
	for name, tc := range cases {
		input := base
		tc.mutate(&input)
		_, err := suite.service.CreateTask(suite.ctx, input)
		suite.ErrorIs(err, tc.want, name)
	}
}

func (suite *TaskServiceTestSuite) TestStats_CalendarDay() {
	suite.create("done late", fixedNow.AddDate(0, 0, -3), true)
	suite.create("missed", fixedNow.AddDate(0, 0, -1), false)
	// Earlier today is still pending on a calendar-day basis
	suite.create("earlier today", fixedNow.Add(-10*time.Hour), false)
	suite.create("tomorrow", fixedNow.AddDate(0, 0, 1), false)

	stats, err := suite.service.Stats(suite.ctx, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(TaskStats{Total: 4, Completed: 1, Pending: 2, Missed: 1}, *stats)
}

func (suite *TaskServiceTestSuite) TestListTasks_StatusFilter() {
	suite.create("done", fixedNow.AddDate(0, 0, -3), true)
	suite.create("missed", fixedNow.AddDate(0, 0, -1), false)
	suite.create("earlier today", fixedNow.Add(-10*time.Hour), false)

	missed, err := suite.service.ListTasks(suite.ctx, ListTasksInput{UserID: suite.userID, Status: "missed"})
	suite.Require().NoError(err)
	suite.Equal([]string{"missed"}, suite.titles(missed))

	pending, err := suite.service.ListTasks(suite.ctx, ListTasksInput{UserID: suite.userID, Status: "Pending"})
	suite.Require().NoError(err)
	suite.Equal([]string{"earlier today"}, suite.titles(pending))

	completed, err := suite.service.ListTasks(suite.ctx, ListTasksInput{UserID: suite.userID, Status: "completed"})
	suite.Require().NoError(err)
	suite.Equal([]string{"done"}, suite.titles(completed))
}

func (suite *TaskServiceTestSuite) TestListTasks_DueDateAndStatusCombine() {
	suite.create("today", fixedNow, false)
	suite.create("tomorrow", fixedNow.AddDate(0, 0, 1), false)

	tasks, err := suite.service.ListTasks(suite.ctx, ListTasksInput{
		UserID:  suite.userID,
		Status:  "pending",
		DueDate: "2024-05-11",
	})
	suite.Require().NoError(err)
	suite.Equal([]string{"tomorrow"}, suite.titles(tasks))

	none, err := suite.service.ListTasks(suite.ctx, ListTasksInput{
		UserID:  suite.userID,
		Status:  "missed",
		DueDate: "2024-05-11",
	})
	suite.Require().NoError(err)
	suite.Empty(none)
}

func (suite *TaskServiceTestSuite) TestListTasks_CreatedAtFilter() {
	old := &models.Task{
		UserID: suite.userID, Title: "old", Description: "D", Priority: models.PriorityLow,
		DueDate: fixedNow, CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	suite.Require().NoError(suite.repo.Create(suite.ctx, old))
	recent := &models.Task{
		UserID: suite.userID, Title: "recent", Description: "D", Priority: models.PriorityLow,
		DueDate: fixedNow, CreatedAt: time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC),
	}
	suite.Require().NoError(suite.repo.Create(suite.ctx, recent))

	tasks, err := suite.service.ListTasks(suite.ctx, ListTasksInput{UserID: suite.userID, CreatedAt: "2024-05-01"})
	suite.Require().NoError(err)
	suite.Equal([]string{"old"}, suite.titles(tasks))

	all, err := suite.service.ListTasks(suite.ctx, ListTasksInput{UserID: suite.userID})
	suite.Require().NoError(err)
	suite.Equal([]string{"recent", "old"}, suite.titles(all))
}

func (suite *TaskServiceTestSuite) TestListTasks_InvalidFilters() {
	for _, in := range []ListTasksInput{
		{UserID: suite.userID, Status: "late"},
		{UserID: suite.userID, Priority: "urgent"},
		{UserID: suite.userID, DueDate: "yesterday"},
		{UserID: suite.userID, CreatedAt: "2024-13-45"},
	} {
		_, err := suite.service.ListTasks(suite.ctx, in)
		suite.ErrorIs(err, ErrInvalidFilter)
	}
}

func (suite *TaskServiceTestSuite) TestUpdateTask() {
	task := suite.create("T", fixedNow, false)

	done := true
	title := "  Renamed "
	updated, err := suite.service.UpdateTask(suite.ctx, suite.userID, task.ID, UpdateTaskInput{Title: &title, Completed: &done})
	suite.Require().NoError(err)
	suite.Equal("Renamed", updated.Title)
	suite.True(updated.Completed)

	past := "2024-05-01"
	_, err = suite.service.UpdateTask(suite.ctx, suite.userID, task.ID, UpdateTaskInput{DueDate: &past})
	suite.ErrorIs(err, ErrDueDateInPast)

	_, err = suite.service.UpdateTask(suite.ctx, "someone-else", task.ID, UpdateTaskInput{Completed: &done})
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestDeleteTask() {
	task := suite.create("T", fixedNow, false)

	_, err := suite.service.DeleteTask(suite.ctx, "someone-else", task.ID)
	suite.ErrorIs(err, ErrTaskNotFound)

	deleted, err := suite.service.DeleteTask(suite.ctx, suite.userID, task.ID)
	suite.Require().NoError(err)
	suite.Equal(task.ID, deleted.ID)

	_, err = suite.service.GetTask(suite.ctx, suite.userID, task.ID)
	suite.ErrorIs(err, ErrTaskNotFound)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

func TestGenerateTasks(t *testing.T) {
	tomorrow := fixedNow.AddDate(0, 0, 1)
	yesterday := fixedNow.AddDate(0, 0, -1)
	ai := &stubSuggester{tasks: []GeneratedTask{
		{Title: "  Write report ", Priority: models.PriorityHigh, DueDate: &tomorrow},
		{Title: "", Description: "dropped"},
		{Title: "Call Bob", Priority: "asap", DueDate: &yesterday},
	}}
	svc := NewTaskService(nil, ai, fixedCalendar())

	tasks, err := svc.GenerateTasks(context.Background(), "write the report tomorrow and call bob")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Write report", tasks[0].Title)
	assert.Equal(t, &tomorrow, tasks[0].DueDate)
	assert.Equal(t, models.PriorityMedium, tasks[1].Priority)
	assert.Nil(t, tasks[1].DueDate)
}

func TestGenerateTasks_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewTaskService(nil, nil, fixedCalendar()).GenerateTasks(ctx, "text")
	assert.ErrorIs(t, err, ErrAIServiceNotConfigured)

	svc := NewTaskService(nil, &stubSuggester{}, fixedCalendar())
	_, err = svc.GenerateTasks(ctx, "  ")
	assert.ErrorIs(t, err, ErrTextRequired)

	_, err = svc.GenerateTasks(ctx, "nothing to do")
	assert.ErrorIs(t, err, ErrAINoTasksGenerated)

	upstream := errors.New("rate limited")
	_, err = NewTaskService(nil, &stubSuggester{err: upstream}, fixedCalendar()).GenerateTasks(ctx, "text")
	assert.ErrorIs(t, err, upstream)
}

func TestParseGeneratedTasks(t *testing.T) {
	content := "```json\n[{\"title\":\"Plan sprint\",\"description\":\"d\",\"priority\":\"low\",\"dueDate\":\"2024-05-12T09:00:00Z\"},{\"title\":\"x\",\"dueDate\":null}]\n```"

	tasks, err := parseGeneratedTasks(content)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Plan sprint", tasks[0].Title)
	assert.Equal(t, models.PriorityLow, tasks[0].Priority)
	require.NotNil(t, tasks[0].DueDate)
	assert.True(t, tasks[0].DueDate.Equal(time.Date(2024, 5, 12, 9, 0, 0, 0, time.UTC)))
	assert.Nil(t, tasks[1].DueDate)

	_, err = parseGeneratedTasks("not json")
	assert.Error(t, err)
}
