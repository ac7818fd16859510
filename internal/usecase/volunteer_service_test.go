package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
)

func newTestVolunteerService(task *entity.Task, apps ...entity.VolunteerApplication) (*VolunteerService, *memVolunteers, *MockTxManager) {
	volunteers := newMemVolunteers(apps...)
	tx := &MockTxManager{}
	return NewVolunteerService(tx, taskRepoWith(task), volunteers, NewAuditor(&MockRabbitMQPublisher{})), volunteers, tx
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending application in a transaction", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 2}
		service, volunteers, tx := newTestVolunteerService(task)

		app, err := service.Apply(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, entity.VolunteerStatusPending, app.Status)
		assert.Equal(t, 2, app.VolunteerUserID)
		assert.Len(t, volunteers.apps, 1)
		assert.Equal(t, 1, tx.Calls)
	})

	t.Run("second application is a duplicate", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 2}
		service, _, _ := newTestVolunteerService(task)

		_, err := service.Apply(ctx, 1, 2)
		require.NoError(t, err)
		_, err = service.Apply(ctx, 1, 2)
		assert.ErrorIs(t, err, entity.ErrDuplicateApplication)
	})

	t.Run("reapply after withdrawal", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 2}
		service, _, _ := newTestVolunteerService(task)

		app, err := service.Apply(ctx, 1, 2)
		require.NoError(t, err)
		_, err = service.Withdraw(ctx, app.ID, 2)
		require.NoError(t, err)

		again, err := service.Apply(ctx, 1, 2)
		require.NoError(t, err)
		assert.NotEqual(t, app.ID, again.ID)
	})

	t.Run("own task", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 2}
		service, _, _ := newTestVolunteerService(task)
		_, err := service.Apply(ctx, 1, 1)
		assert.ErrorIs(t, err, entity.ErrOwnTaskForbidden)
	})

	t.Run("task not open", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusCompleted, CreatorID: 1, VolunteerSlots: 2}
		service, _, _ := newTestVolunteerService(task)
		_, err := service.Apply(ctx, 1, 2)
		assert.ErrorIs(t, err, entity.ErrTaskNotOpen)
	})

	t.Run("slots full", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 1}
		service, _, _ := newTestVolunteerService(task,
			entity.VolunteerApplication{ID: 1, TaskID: 1, VolunteerUserID: 5, Status: entity.VolunteerStatusAccepted})
		_, err := service.Apply(ctx, 1, 2)
		assert.ErrorIs(t, err, entity.ErrSlotsFull)
	})

	t.Run("missing task", func(t *testing.T) {
		service, _, _ := newTestVolunteerService(nil)
		_, err := service.Apply(ctx, 7, 2)
		assert.ErrorIs(t, err, entity.ErrTaskNotFound)
	})
}

func TestRespond(t *testing.T) {
	ctx := context.Background()
	task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 1}
	pending := entity.VolunteerApplication{ID: 10, TaskID: 1, VolunteerUserID: 2, Status: entity.VolunteerStatusPending}

	t.Run("owner accepts", func(t *testing.T) {
		service, volunteers, _ := newTestVolunteerService(task, pending)
		app, err := service.Respond(ctx, 10, 1, entity.VolunteerStatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, entity.VolunteerStatusAccepted, app.Status)
		assert.Equal(t, entity.VolunteerStatusAccepted, volunteers.apps[0].Status)
	})

	t.Run("accept beyond capacity", func(t *testing.T) {
		service, volunteers, _ := newTestVolunteerService(task,
			entity.VolunteerApplication{ID: 9, TaskID: 1, VolunteerUserID: 3, Status: entity.VolunteerStatusAccepted},
			pending,
		)
		_, err := service.Respond(ctx, 10, 1, entity.VolunteerStatusAccepted)
		assert.ErrorIs(t, err, entity.ErrSlotsFull)
		assert.Equal(t, entity.VolunteerStatusPending, volunteers.apps[1].Status)
	})

	t.Run("owner rejects even when full", func(t *testing.T) {
		service, _, _ := newTestVolunteerService(task,
			entity.VolunteerApplication{ID: 9, TaskID: 1, VolunteerUserID: 3, Status: entity.VolunteerStatusAccepted},
			pending,
		)
		app, err := service.Respond(ctx, 10, 1, entity.VolunteerStatusRejected)
		require.NoError(t, err)
		assert.Equal(t, entity.VolunteerStatusRejected, app.Status)
	})

	t.Run("applicant cannot accept", func(t *testing.T) {
		service, _, _ := newTestVolunteerService(task, pending)
		_, err := service.Respond(ctx, 10, 2, entity.VolunteerStatusAccepted)
		assert.ErrorIs(t, err, entity.ErrUnauthorized)
	})

	t.Run("accepted cannot be withdrawn", func(t *testing.T) {
		accepted := pending
		accepted.Status = entity.VolunteerStatusAccepted
		service, _, _ := newTestVolunteerService(task, accepted)
		_, err := service.Withdraw(ctx, 10, 2)
		assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	})

	t.Run("owner cannot decide on finished task", func(t *testing.T) {
		done := &entity.Task{ID: 1, Status: entity.TaskStatusCancelled, CreatorID: 1, VolunteerSlots: 1}
		service, _, _ := newTestVolunteerService(done, pending)
		_, err := service.Respond(ctx, 10, 1, entity.VolunteerStatusAccepted)
		assert.ErrorIs(t, err, entity.ErrTaskNotOpen)
	})

	t.Run("unknown application", func(t *testing.T) {
		service, _, _ := newTestVolunteerService(task)
		_, err := service.Respond(ctx, 404, 1, entity.VolunteerStatusAccepted)
		assert.ErrorIs(t, err, entity.ErrApplicationNotFound)
	})
}

func TestListForTaskVisibility(t *testing.T) {
	task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 3}
	service, _, _ := newTestVolunteerService(task,
		entity.VolunteerApplication{ID: 1, TaskID: 1, VolunteerUserID: 2, Status: entity.VolunteerStatusAccepted},
		entity.VolunteerApplication{ID: 2, TaskID: 1, VolunteerUserID: 3, Status: entity.VolunteerStatusPending},
		entity.VolunteerApplication{ID: 3, TaskID: 1, VolunteerUserID: 4, Status: entity.VolunteerStatusWithdrawn},
	)
	ctx := context.Background()

	all, err := service.ListForTask(ctx, 1, 1, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pendingOnly, err := service.ListForTask(ctx, 1, 1, entity.VolunteerStatusPending)
	require.NoError(t, err)
	require.Len(t, pendingOnly, 1)
	assert.Equal(t, 2, pendingOnly[0].ID)

	public, err := service.ListForTask(ctx, 1, 9, entity.VolunteerStatusPending)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, entity.VolunteerStatusAccepted, public[0].Status)

	_, err = service.ListForTask(ctx, 2, 1, "")
	assert.ErrorIs(t, err, entity.ErrTaskNotFound)
}

func TestAssign(t *testing.T) {
	ctx := context.Background()
	apps := func() []entity.VolunteerApplication {
		return []entity.VolunteerApplication{
			{ID: 1, TaskID: 1, VolunteerUserID: 2, Status: entity.VolunteerStatusPending},
			{ID: 2, TaskID: 1, VolunteerUserID: 3, Status: entity.VolunteerStatusPending},
			{ID: 3, TaskID: 1, VolunteerUserID: 4, Status: entity.VolunteerStatusAccepted},
			{ID: 4, TaskID: 1, VolunteerUserID: 5, Status: entity.VolunteerStatusRejected},
		}
	}

	t.Run("accepts all within capacity", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 3}
		service, volunteers, _ := newTestVolunteerService(task, apps()...)

		accepted, err := service.Assign(ctx, 1, 1, []int{1, 2, 3, 2})
		require.NoError(t, err)
		assert.Len(t, accepted, 2)
		assert.Equal(t, 3, entity.CountApplications(3, volunteers.apps).Accepted)
	})

	t.Run("overflow fails as a whole", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 2}
		service, volunteers, _ := newTestVolunteerService(task, apps()...)

		_, err := service.Assign(ctx, 1, 1, []int{1, 2})
		assert.ErrorIs(t, err, entity.ErrSlotsFull)
		assert.Equal(t, 1, entity.CountApplications(2, volunteers.apps).Accepted)
	})

	t.Run("rejected cannot be accepted", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 5}
		service, _, _ := newTestVolunteerService(task, apps()...)
		_, err := service.Assign(ctx, 1, 1, []int{4})
		assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	})

	t.Run("foreign application", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 5}
		service, _, _ := newTestVolunteerService(task, apps()...)
		_, err := service.Assign(ctx, 1, 1, []int{77})
		assert.ErrorIs(t, err, entity.ErrApplicationNotFound)
	})

	t.Run("only creator", func(t *testing.T) {
		task := &entity.Task{ID: 1, Status: entity.TaskStatusOpen, CreatorID: 1, VolunteerSlots: 5}
		service, _, _ := newTestVolunteerService(task, apps()...)
		_, err := service.Assign(ctx, 1, 2, []int{1})
		assert.ErrorIs(t, err, entity.ErrUnauthorized)
	})
}
