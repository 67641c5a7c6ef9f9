package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/taskwave-api/internal/models"
	"github.com/yukikurage/taskwave-api/internal/repository"
	"github.com/yukikurage/taskwave-api/internal/utils"
)

type FocusSessionServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	users   repository.UserRepository
	tasks   repository.TaskRepository
	service *FocusSessionService
	userID  string
}

func (suite *FocusSessionServiceTestSuite) SetupTest() {
	db := newTestDB(suite.T())
	suite.ctx = context.Background()
	suite.users = repository.NewUserRepository(db)
	suite.tasks = repository.NewTaskRepository(db)
	suite.service = NewFocusSessionService(repository.NewFocusSessionRepository(db), suite.tasks, fixedCalendar())
	suite.userID = createUser(suite.T(), suite.users, "a@x.com").ID
}

func (suite *FocusSessionServiceTestSuite) validInput() CreateSessionInput {
	return CreateSessionInput{
		UserID:    suite.userID,
		TaskName:  "Deep work",
		Duration:  25,
		StartedAt: fixedNow.Format(time.RFC3339),
		EndedAt:   fixedNow.Add(25 * time.Minute).Format(time.RFC3339),
	}
}

func (suite *FocusSessionServiceTestSuite) start() *models.FocusSession {
	session, err := suite.service.CreateSession(suite.ctx, suite.validInput())
	suite.Require().NoError(err)
	return session
}

func (suite *FocusSessionServiceTestSuite) streak() int {
	user, err := suite.users.FindByID(suite.ctx, suite.userID)
	suite.Require().NoError(err)
	return user.FocusStreak
}

func (suite *FocusSessionServiceTestSuite) TestCreateSession() {
	session := suite.start()
	suite.NotEmpty(session.ID)
	suite.Equal(models.FocusSessionStatusInProgress, session.Status)
	suite.Nil(session.TaskID)
}

func (suite *FocusSessionServiceTestSuite) TestCreateSession_Validation() {
	cases := map[string]struct {
		mutate func(*CreateSessionInput)
		want   error
	}{
		"duration 3":         {func(in *CreateSessionInput) { in.Duration = 3 }, ErrDurationTooShort},
		"blank task name":    {func(in *CreateSessionInput) { in.TaskName = " " }, ErrTaskNameRequired},
		"started yesterday":  {func(in *CreateSessionInput) { in.StartedAt = "2024-05-09T23:00:00Z" }, ErrStartNotToday},
		"started tomorrow":   {func(in *CreateSessionInput) { in.StartedAt = "2024-05-11T08:00:00Z" }, ErrStartNotToday},
		"ended yesterday":    {func(in *CreateSessionInput) { in.EndedAt = "2024-05-09T23:00:00Z" }, ErrEndBeforeToday},
		"ended before start": {func(in *CreateSessionInput) { in.EndedAt = "2024-05-10T14:00:00Z" }, ErrEndBeforeStart},
		"garbage start":      {func(in *CreateSessionInput) { in.StartedAt = "now" }, ErrInvalidSessionTime},
	}
	for name, tc := range cases {
		input := suite.validInput()
		tc.mutate(&input)
		_, err := suite.service.CreateSession(suite.ctx, input)
		suite.ErrorIs(err, tc.want, name)
	}
}

func (suite *FocusSessionServiceTestSuite) TestCreateSession_TaskOwnership() {
	own := &models.Task{UserID: suite.userID, Title: "T", Description: "D", Priority: models.PriorityLow, DueDate: fixedNow}
	suite.Require().NoError(suite.tasks.Create(suite.ctx, own))
	other := createUser(suite.T(), suite.users, "b@x.com")
	foreign := &models.Task{UserID: other.ID, Title: "T", Description: "D", Priority: models.PriorityLow, DueDate: fixedNow}
	suite.Require().NoError(suite.tasks.Create(suite.ctx, foreign))

	input := suite.validInput()
	input.TaskID = &own.ID
	session, err := suite.service.CreateSession(suite.ctx, input)
	suite.Require().NoError(err)
	suite.Require().NotNil(session.TaskID)
	suite.Equal(own.ID, *session.TaskID)

	input.TaskID = &foreign.ID
	_, err = suite.service.CreateSession(suite.ctx, input)
	suite.ErrorIs(err, ErrUnknownTask)
}

func (suite *FocusSessionServiceTestSuite) TestCompleteSession_IncrementsOnce() {
	session := suite.start()

	result, err := suite.service.CompleteSession(suite.ctx, suite.userID, session.ID)
	suite.Require().NoError(err)
	suite.Equal(models.FocusSessionStatusSuccess, result.Session.Status)
	suite.Require().NotNil(result.FocusStreak)
	suite.Equal(1, *result.FocusStreak)

	_, err = suite.service.CompleteSession(suite.ctx, suite.userID, session.ID)
	suite.Require().NoError(err)
	suite.Equal(1, suite.streak())
}

func (suite *FocusSessionServiceTestSuite) TestCompleteSession_StreakCountsDistinctSessions() {
	sessions := []*models.FocusSession{suite.start(), suite.start(), suite.start()}

	var wg sync.WaitGroup
	for _, s := range append(sessions, sessions...) {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := suite.service.CompleteSession(suite.ctx, suite.userID, id)
			suite.NoError(err)
		}(s.ID)
	}
	wg.Wait()

	suite.Equal(3, suite.streak())
}

func (suite *FocusSessionServiceTestSuite) TestUpdateSession_SuccessGoesThroughCompletion() {
	session := suite.start()

	status := "Success"
	result, err := suite.service.UpdateSession(suite.ctx, suite.userID, session.ID, UpdateSessionInput{Status: &status})
	suite.Require().NoError(err)
	suite.Equal(models.FocusSessionStatusSuccess, result.Session.Status)
	suite.Require().NotNil(result.FocusStreak)
	suite.Equal(1, suite.streak())
}

func (suite *FocusSessionServiceTestSuite) TestUpdateSession_Interrupted() {
	session := suite.start()

	status := "Interrupted"
	result, err := suite.service.UpdateSession(suite.ctx, suite.userID, session.ID, UpdateSessionInput{Status: &status})
	suite.Require().NoError(err)
	suite.Equal(models.FocusSessionStatusInterrupted, result.Session.Status)
	suite.Nil(result.FocusStreak)
	suite.Equal(0, suite.streak())

	_, err = suite.service.CompleteSession(suite.ctx, suite.userID, session.ID)
	suite.ErrorIs(err, ErrSessionAlreadyStopped)
}

func (suite *FocusSessionServiceTestSuite) TestUpdateSession_RejectedSuccessKeepsEdits() {
	session := suite.start()

	interrupted := "Interrupted"
	_, err := suite.service.UpdateSession(suite.ctx, suite.userID, session.ID, UpdateSessionInput{Status: &interrupted})
	suite.Require().NoError(err)

	name := "Renamed"
	success := "Success"
	_, err = suite.service.UpdateSession(suite.ctx, suite.userID, session.ID, UpdateSessionInput{TaskName: &name, Status: &success})
	suite.ErrorIs(err, ErrSessionAlreadyStopped)

	sessions, _, err := suite.service.ListSessions(suite.ctx, suite.userID, nil)
	suite.Require().NoError(err)
	suite.Require().Len(sessions, 1)
	suite.Equal("Deep work", sessions[0].TaskName)
	suite.Equal(0, suite.streak())
}

func (suite *FocusSessionServiceTestSuite) TestUpdateSession_SuccessWithEdits() {
	session := suite.start()

	name := "Renamed"
	success := "Success"
	result, err := suite.service.UpdateSession(suite.ctx, suite.userID, session.ID, UpdateSessionInput{TaskName: &name, Status: &success})
	suite.Require().NoError(err)
	suite.Equal("Renamed", result.Session.TaskName)
	suite.Equal(models.FocusSessionStatusSuccess, result.Session.Status)
	suite.Require().NotNil(result.FocusStreak)
	suite.Equal(1, *result.FocusStreak)
}

func (suite *FocusSessionServiceTestSuite) TestUpdateSession_EndBeforeStoredStart() {
	session := suite.start()

	// The session starts at 15:00; moving only the end to 14:30 must fail.
	end := fixedNow.Add(-30 * time.Minute).Format(time.RFC3339)
	_, err := suite.service.UpdateSession(suite.ctx, suite.userID, session.ID, UpdateSessionInput{EndedAt: &end})
	suite.ErrorIs(err, ErrEndBeforeStart)

	start := fixedNow.Add(time.Hour).Format(time.RFC3339)
	_, err = suite.service.UpdateSession(suite.ctx, suite.userID, session.ID, UpdateSessionInput{StartedAt: &start})
	suite.ErrorIs(err, ErrEndBeforeStart)
}

func (suite *FocusSessionServiceTestSuite) TestUpdateSession_Fields() {
	session := suite.start()

	name := "Reading"
	duration := 50
	result, err := suite.service.UpdateSession(suite.ctx, suite.userID, session.ID, UpdateSessionInput{TaskName: &name, Duration: &duration})
	suite.Require().NoError(err)
	suite.Equal("Reading", result.Session.TaskName)
	suite.Equal(50, result.Session.Duration)

	short := 4
	_, err = suite.service.UpdateSession(suite.ctx, suite.userID, session.ID, UpdateSessionInput{Duration: &short})
	suite.ErrorIs(err, ErrDurationTooShort)

	bogus := "Paused"
	_, err = suite.service.UpdateSession(suite.ctx, suite.userID, session.ID, UpdateSessionInput{Status: &bogus})
	suite.ErrorIs(err, ErrInvalidSessionStatus)
}

func (suite *FocusSessionServiceTestSuite) TestOtherUserCannotTouchSession() {
	session := suite.start()
	other := createUser(suite.T(), suite.users, "b@x.com")

	_, err := suite.service.CompleteSession(suite.ctx, other.ID, session.ID)
	suite.ErrorIs(err, ErrSessionNotFound)

	name := "x"
	_, err = suite.service.UpdateSession(suite.ctx, other.ID, session.ID, UpdateSessionInput{TaskName: &name})
	suite.ErrorIs(err, ErrSessionNotFound)

	_, err = suite.service.DeleteSession(suite.ctx, other.ID, session.ID)
	suite.ErrorIs(err, ErrSessionNotFound)
}

func (suite *FocusSessionServiceTestSuite) TestListSessions() {
	suite.start()
	suite.start()

	sessions, total, err := suite.service.ListSessions(suite.ctx, suite.userID, nil)
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(sessions, 2)

	page, _, err := suite.service.ListSessions(suite.ctx, suite.userID, &utils.PaginationParams{Page: 1, Limit: 1})
	suite.Require().NoError(err)
	suite.Len(page, 1)
}

func TestFocusSessionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FocusSessionServiceTestSuite))
}
