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

type budgetFixture struct {
	svc         BudgetService
	budgetRepo  *fakeBudgetRepo
	projectRepo *fakeProjectRepo
	expenseRepo *fakeExpenseRepo
	auditRepo   *fakeAuditRepo
	resolver    *fakeResolver
	dispatcher  *fakeDispatcher
	project     *model.Project
}

func newBudgetFixture() *budgetFixture {
	f := &budgetFixture{
		budgetRepo:  newFakeBudgetRepo(),
		projectRepo: newFakeProjectRepo(),
		expenseRepo: newFakeExpenseRepo(),
		auditRepo:   &fakeAuditRepo{},
		resolver:    newFakeResolver(),
		dispatcher:  &fakeDispatcher{},
	}
	f.svc = NewBudgetService(f.budgetRepo, f.projectRepo, f.expenseRepo, f.auditRepo, f.resolver, fakeTxManager{}, f.dispatcher)
	f.project = f.projectRepo.add(&model.Project{
		Name:        "Apollo",
		TotalBudget: decimal.RequireFromString("10000"),
	})
	return f
}

func TestCreateCategoryRollsUpAllocation(t *testing.T) {
	f := newBudgetFixture()
	ident := memberIdentity()
	f.resolver.grant(ident.ID, f.project.ID, model.PermManageBudget)

	category, err := f.svc.CreateCategory(context.Background(), ident, f.project.ID, CreateCategoryRequest{
		Name:            "Travel",
		AllocatedAmount: "2500",
	})
	require.NoError(t, err)
	assert.Equal(t, "Travel", category.Name)
	assert.True(t, f.project.AllocatedBudget.Equal(decimal.RequireFromString("2500")))

	require.Len(t, f.budgetRepo.versions, 1)
	version := f.budgetRepo.versions[0]
	assert.Equal(t, 1, version.VersionNo)
	assert.Equal(t, "category added: Travel", version.Reason)
	require.NotNil(t, version.ChangedBy)
	assert.Equal(t, ident.ID, *version.ChangedBy)
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	f := newBudgetFixture()
	ident := memberIdentity()
	f.resolver.grant(ident.ID, f.project.ID, model.PermManageBudget)

	_, err := f.svc.CreateCategory(context.Background(), ident, f.project.ID, CreateCategoryRequest{Name: "Travel", AllocatedAmount: "100"})
	require.NoError(t, err)

	_, err = f.svc.CreateCategory(context.Background(), ident, f.project.ID, CreateCategoryRequest{Name: "Travel", AllocatedAmount: "100"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreateCategoryWarnsOverAllocation(t *testing.T) {
	f := newBudgetFixture()
	ident := memberIdentity()
	f.resolver.grant(ident.ID, f.project.ID, model.PermManageBudget)

	_, err := f.svc.CreateCategory(context.Background(), ident, f.project.ID, CreateCategoryRequest{
		Name:            "Hardware",
		AllocatedAmount: "15000",
	})
	require.NoError(t, err)
	assert.Contains(t, f.dispatcher.titles(), "Budget over-allocated")
}

func TestUpdateCategoryAppliesAllocationDelta(t *testing.T) {
	f := newBudgetFixture()
	ident := memberIdentity()
	f.resolver.grant(ident.ID, f.project.ID, model.PermManageBudget)

	category := f.budgetRepo.addCategory(&model.BudgetCategory{
		ProjectID:       f.project.ID,
		Name:            "Travel",
		AllocatedAmount: decimal.RequireFromString("1000"),
	})
	f.project.AllocatedBudget = decimal.RequireFromString("1000")

	_, err := f.svc.UpdateCategory(context.Background(), ident, category.ID, UpdateCategoryRequest{AllocatedAmount: "1600"})
	require.NoError(t, err)
	assert.True(t, f.project.AllocatedBudget.Equal(decimal.RequireFromString("1600")))
	require.Len(t, f.budgetRepo.versions, 1)
	assert.Equal(t, "category reallocated: Travel", f.budgetRepo.versions[0].Reason)
}

func TestDeleteCategoryWithExpensesRefused(t *testing.T) {
	f := newBudgetFixture()
	ident := adminIdentity()

	category := f.budgetRepo.addCategory(&model.BudgetCategory{
		ProjectID:       f.project.ID,
		Name:            "Travel",
		AllocatedAmount: decimal.RequireFromString("1000"),
	})
	f.expenseRepo.add(&model.Expense{
		ProjectID:  f.project.ID,
		CategoryID: &category.ID,
		Amount:     decimal.RequireFromString("50"),
		Status:     model.ExpenseStatusPending,
	})

	err := f.svc.DeleteCategory(context.Background(), ident, category.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDependencyConflict, apperr.KindOf(err))
}

func TestDeleteCategorySubtractsAllocation(t *testing.T) {
	f := newBudgetFixture()
	ident := adminIdentity()

	category := f.budgetRepo.addCategory(&model.BudgetCategory{
		ProjectID:       f.project.ID,
		Name:            "Travel",
		AllocatedAmount: decimal.RequireFromString("1000"),
	})
	f.project.AllocatedBudget = decimal.RequireFromString("1000")

	require.NoError(t, f.svc.DeleteCategory(context.Background(), ident, category.ID))
	assert.True(t, f.project.AllocatedBudget.IsZero())
	assert.Equal(t, []string{model.ActionDeleteBudgetCat}, f.auditRepo.actions())
}

func TestVersionNumbersAreSequential(t *testing.T) {
	f := newBudgetFixture()
	ident := adminIdentity()

	for _, name := range []string{"Travel", "Hardware", "Software"} {
		_, err := f.svc.CreateCategory(context.Background(), ident, f.project.ID, CreateCategoryRequest{Name: name, AllocatedAmount: "100"})
		require.NoError(t, err)
	}

	require.Len(t, f.budgetRepo.versions, 3)
	for i, version := range f.budgetRepo.versions {
		assert.Equal(t, i+1, version.VersionNo)
	}
}

func TestListVersionsRequiresAccess(t *testing.T) {
	f := newBudgetFixture()
	stranger := memberIdentity()

	_, _, err := f.svc.ListVersions(context.Background(), stranger, f.project.ID, 1, 20)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, _, err = f.svc.ListVersions(context.Background(), stranger, uuid.New(), 1, 20)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
