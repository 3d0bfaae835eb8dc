package service

import (
	"context"
	"testing"

	"budgetdesk/internal/model"
	"budgetdesk/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	svc         AdminService
	userRepo    *fakeUserRepo
	projectRepo *fakeProjectRepo
	expenseRepo *fakeExpenseRepo
	budgetRepo  *fakeBudgetRepo
	teamRepo    *fakeTeamRepo
	notifRepo   *fakeNotificationRepo
	auditRepo   *fakeAuditRepo
	dispatcher  *fakeDispatcher
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		userRepo:    newFakeUserRepo(),
		projectRepo: newFakeProjectRepo(),
		expenseRepo: newFakeExpenseRepo(),
		budgetRepo:  newFakeBudgetRepo(),
		teamRepo:    newFakeTeamRepo(),
		notifRepo:   newFakeNotificationRepo(),
		auditRepo:   &fakeAuditRepo{},
		dispatcher:  &fakeDispatcher{},
	}
	f.svc = NewAdminService(f.userRepo, f.projectRepo, f.expenseRepo, f.budgetRepo, f.teamRepo, f.notifRepo, f.auditRepo, fakeTxManager{}, f.dispatcher)
	return f
}

func TestAdminCreateUserDuplicateEmail(t *testing.T) {
	f := newAdminFixture()
	admin := adminIdentity()
	f.userRepo.add(&model.User{Email: "taken@corp.test", IsActive: true})

	_, err := f.svc.CreateUser(context.Background(), admin, AdminCreateUserRequest{
		Email:    "taken@corp.test",
		Password: "secret1",
		FullName: "Dup",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAdminUpdateUserSelfGuards(t *testing.T) {
	f := newAdminFixture()
	admin := adminIdentity()
	f.userRepo.add(&model.User{ID: admin.ID, Email: admin.Email, Role: model.SystemRoleAdmin, IsActive: true})

	_, err := f.svc.UpdateUser(context.Background(), admin, admin.ID, AdminUpdateUserRequest{Role: string(model.SystemRoleUser)})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "own role")

	inactive := false
	_, err = f.svc.UpdateUser(context.Background(), admin, admin.ID, AdminUpdateUserRequest{IsActive: &inactive})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "own account")
}

func TestAdminDeactivationRevokesSessions(t *testing.T) {
	f := newAdminFixture()
	admin := adminIdentity()
	user := f.userRepo.add(&model.User{Email: "victim@corp.test", Role: model.SystemRoleUser, IsActive: true})
	require.NoError(t, f.userRepo.CreateRefreshToken(context.Background(), &model.RefreshToken{UserID: user.ID, Token: "tok-1"}))

	inactive := false
	_, err := f.svc.UpdateUser(context.Background(), admin, user.ID, AdminUpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.userRepo.GetRefreshToken(context.Background(), "tok-1")
	assert.Error(t, err, "refresh tokens are revoked on deactivation")
	assert.False(t, user.IsActive)
}

func TestAdminDeleteUserSelfRejected(t *testing.T) {
	f := newAdminFixture()
	admin := adminIdentity()
	f.userRepo.add(&model.User{ID: admin.ID, Email: admin.Email, Role: model.SystemRoleAdmin, IsActive: true})

	err := f.svc.DeleteUser(context.Background(), admin, admin.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAdminDeleteUserDependencyGuards(t *testing.T) {
	f := newAdminFixture()
	admin := adminIdentity()
	user := f.userRepo.add(&model.User{Email: "busy@corp.test", IsActive: true})

	f.projectRepo.activeManaged[user.ID] = 2
	err := f.svc.DeleteUser(context.Background(), admin, user.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDependencyConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "manages active projects")

	f.projectRepo.activeManaged[user.ID] = 0
	f.expenseRepo.add(&model.Expense{SubmittedBy: user.ID, Status: model.ExpenseStatusPending, Amount: decimal.RequireFromString("5")})
	err = f.svc.DeleteUser(context.Background(), admin, user.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending expenses")
}

func TestAdminDeleteUserDetachesEverything(t *testing.T) {
	f := newAdminFixture()
	admin := adminIdentity()
	user := f.userRepo.add(&model.User{Email: "leaver@corp.test", IsActive: true})
	project := f.projectRepo.add(&model.Project{Name: "Apollo"})

	f.teamRepo.put(project.ID, user.ID, model.ProjectRoleMember)
	require.NoError(t, f.userRepo.CreateRefreshToken(context.Background(), &model.RefreshToken{UserID: user.ID, Token: "tok-2"}))
	expense := f.expenseRepo.add(&model.Expense{
		ProjectID:   project.ID,
		SubmittedBy: uuid.New(),
		ApprovedBy:  &user.ID,
		Status:      model.ExpenseStatusApproved,
		Amount:      decimal.RequireFromString("30"),
	})

	require.NoError(t, f.svc.DeleteUser(context.Background(), admin, user.ID))

	_, err := f.teamRepo.GetMembership(context.Background(), project.ID, user.ID)
	assert.Error(t, err, "memberships removed")
	_, err = f.userRepo.GetByID(context.Background(), user.ID)
	assert.Error(t, err, "account removed")
	assert.Nil(t, expense.ApprovedBy, "approver reference cleared")
	assert.Equal(t, []string{model.ActionDeleteUser}, f.auditRepo.actions())
}

func TestOverrideExpenseStatusRecomputesSpend(t *testing.T) {
	f := newAdminFixture()
	admin := adminIdentity()
	project := f.projectRepo.add(&model.Project{
		Name:        "Apollo",
		TotalBudget: decimal.RequireFromString("1000"),
		SpentBudget: decimal.RequireFromString("300"),
	})
	submitter := uuid.New()
	expense := f.expenseRepo.add(&model.Expense{
		ProjectID:   project.ID,
		SubmittedBy: submitter,
		Description: "Flights",
		Status:      model.ExpenseStatusApproved,
		Amount:      decimal.RequireFromString("300"),
	})

	// Revoking the only approved expense drops the roll-up back to zero.
	_, err := f.svc.OverrideExpenseStatus(context.Background(), admin, expense.ID, OverrideExpenseRequest{
		Status:  model.ExpenseStatusRejected,
		Comment: "duplicate claim",
	})
	require.NoError(t, err)
	assert.True(t, project.SpentBudget.IsZero())
	assert.Equal(t, []string{model.ActionOverrideExpense}, f.auditRepo.actions())

	require.Len(t, f.dispatcher.sent, 1)
	assert.Equal(t, submitter, f.dispatcher.sent[0].UserID)
}

func TestOverrideExpenseStatusRejectsUnknownStatus(t *testing.T) {
	f := newAdminFixture()
	_, err := f.svc.OverrideExpenseStatus(context.Background(), adminIdentity(), uuid.New(), OverrideExpenseRequest{Status: "archived"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestOverviewAggregates(t *testing.T) {
	f := newAdminFixture()
	f.userRepo.add(&model.User{Email: "a@corp.test", IsActive: true})
	f.userRepo.add(&model.User{Email: "b@corp.test", IsActive: true})
	f.projectRepo.add(&model.Project{Name: "Apollo"})

	overview, err := f.svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), overview.Users)
	assert.Equal(t, int64(1), overview.Projects.TotalProjects)
}
