package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"budgetdesk/internal/authz"
	"budgetdesk/internal/model"
	"budgetdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory fakes for the repository interfaces. Tests exercise the service
// rules against these instead of a database.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// notice is one recorded dispatch.
type notice struct {
	Target  string // "user", "team", "admins", "sysadmins"
	UserID  uuid.UUID
	Title   string
	Message string
	Type    string
}

type fakeDispatcher struct {
	sent []notice
}

func (d *fakeDispatcher) NotifyUser(_ context.Context, userID uuid.UUID, title, message, ntype, _ string) error {
	d.sent = append(d.sent, notice{Target: "user", UserID: userID, Title: title, Message: message, Type: ntype})
	return nil
}

func (d *fakeDispatcher) NotifyProjectTeam(_ context.Context, _ uuid.UUID, title, message, ntype, _ string) error {
	d.sent = append(d.sent, notice{Target: "team", Title: title, Message: message, Type: ntype})
	return nil
}

func (d *fakeDispatcher) NotifyProjectAdmins(_ context.Context, _ uuid.UUID, title, message, ntype, _ string) error {
	d.sent = append(d.sent, notice{Target: "admins", Title: title, Message: message, Type: ntype})
	return nil
}

func (d *fakeDispatcher) NotifySystemAdmins(_ context.Context, title, message, ntype, _ string) error {
	d.sent = append(d.sent, notice{Target: "sysadmins", Title: title, Message: message, Type: ntype})
	return nil
}

func (d *fakeDispatcher) titles() []string {
	var out []string
	for _, n := range d.sent {
		out = append(out, n.Title)
	}
	return out
}

// fakeResolver answers permission checks from configurable fields.
type fakeResolver struct {
	perms      map[string]bool // userID|projectID|perm
	admins     map[string]bool // userID|projectID
	creators   map[string]bool // userID|projectID
	adminIDs   []uuid.UUID
	adminError error
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		perms:    map[string]bool{},
		admins:   map[string]bool{},
		creators: map[string]bool{},
	}
}

func key(parts ...string) string { return strings.Join(parts, "|") }

func (r *fakeResolver) grant(userID, projectID uuid.UUID, perm string) {
	r.perms[key(userID.String(), projectID.String(), perm)] = true
}

func (r *fakeResolver) HasProjectPermission(_ context.Context, userID, projectID uuid.UUID, perm string) bool {
	return r.perms[key(userID.String(), projectID.String(), perm)]
}

func (r *fakeResolver) IsProjectAdmin(_ context.Context, userID, projectID uuid.UUID) bool {
	return r.admins[key(userID.String(), projectID.String())]
}

func (r *fakeResolver) IsProjectCreator(_ context.Context, userID, projectID uuid.UUID) bool {
	return r.creators[key(userID.String(), projectID.String())]
}

func (r *fakeResolver) Can(ctx context.Context, ident authz.Identity, projectID uuid.UUID, perm string) bool {
	if ident.IsSystemAdmin() {
		return true
	}
	if r.IsProjectCreator(ctx, ident.ID, projectID) {
		return true
	}
	return r.HasProjectPermission(ctx, ident.ID, projectID, perm)
}

func (r *fakeResolver) AdminProjects(_ context.Context, ident authz.Identity) ([]uuid.UUID, bool, error) {
	if ident.HasOversight() {
		return nil, true, nil
	}
	return r.adminIDs, false, r.adminError
}

func (r *fakeResolver) InvalidateCache() {}

// --- users ---

type fakeUserRepo struct {
	users  map[uuid.UUID]*model.User
	tokens map[string]*model.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  map[uuid.UUID]*model.User{},
		tokens: map[string]*model.RefreshToken{},
	}
}

func (r *fakeUserRepo) add(user *model.User) *model.User {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.add(user)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context, _ repository.UserFilter) ([]model.User, int64, error) {
	var out []model.User
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) SystemAdminIDs(_ context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, user := range r.users {
		if user.Role == model.SystemRoleAdmin && user.IsActive {
			ids = append(ids, user.ID)
		}
	}
	return ids, nil
}

func (r *fakeUserRepo) CreateRefreshToken(_ context.Context, token *model.RefreshToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeUserRepo) GetRefreshToken(_ context.Context, token string) (*model.RefreshToken, error) {
	rt, ok := r.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rt, nil
}

func (r *fakeUserRepo) DeleteRefreshToken(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *fakeUserRepo) DeleteRefreshTokensByUser(_ context.Context, userID uuid.UUID) error {
	for token, rt := range r.tokens {
		if rt.UserID == userID {
			delete(r.tokens, token)
		}
	}
	return nil
}

// --- projects ---

type fakeProjectRepo struct {
	projects map[uuid.UUID]*model.Project

	dependents struct {
		members, expenses, milestones int64
	}
	activeManaged map[uuid.UUID]int64
	unitProjects  map[uuid.UUID]int64
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		projects:      map[uuid.UUID]*model.Project{},
		activeManaged: map[uuid.UUID]int64{},
		unitProjects:  map[uuid.UUID]int64{},
	}
}

func (r *fakeProjectRepo) add(project *model.Project) *model.Project {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	r.projects[project.ID] = project
	return project
}

func (r *fakeProjectRepo) Create(_ context.Context, project *model.Project) error {
	r.add(project)
	return nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *model.Project) error {
	r.projects[project.ID] = project
	return nil
}

func (r *fakeProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.projects, id)
	return nil
}

func (r *fakeProjectRepo) DeleteCascade(_ context.Context, id uuid.UUID) error {
	delete(r.projects, id)
	return nil
}

func (r *fakeProjectRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Project, error) {
	project, ok := r.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return project, nil
}

func (r *fakeProjectRepo) List(_ context.Context, filter repository.ProjectFilter) ([]model.Project, int64, error) {
	var out []model.Project
	for _, project := range r.projects {
		if filter.IDs != nil {
			found := false
			for _, id := range filter.IDs {
				if id == project.ID {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, *project)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r *fakeProjectRepo) CountDependents(_ context.Context, _ uuid.UUID) (int64, int64, int64, error) {
	d := r.dependents
	return d.members, d.expenses, d.milestones, nil
}

func (r *fakeProjectRepo) CountActiveManagedBy(_ context.Context, userID uuid.UUID) (int64, error) {
	return r.activeManaged[userID], nil
}

func (r *fakeProjectRepo) CountByBusinessUnit(_ context.Context, unitID uuid.UUID) (int64, error) {
	return r.unitProjects[unitID], nil
}

func (r *fakeProjectRepo) Metrics(_ context.Context, _ *uuid.UUID) (*repository.DashboardMetrics, error) {
	return &repository.DashboardMetrics{TotalProjects: int64(len(r.projects))}, nil
}

// --- team ---

type fakeTeamRepo struct {
	memberships map[string]*model.ProjectTeamMembership
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{memberships: map[string]*model.ProjectTeamMembership{}}
}

func (r *fakeTeamRepo) put(projectID, userID uuid.UUID, role model.ProjectRole) {
	r.memberships[key(projectID.String(), userID.String())] = &model.ProjectTeamMembership{
		ID:        uuid.New(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}
}

func (r *fakeTeamRepo) GetMembership(_ context.Context, projectID, userID uuid.UUID) (*model.ProjectTeamMembership, error) {
	m, ok := r.memberships[key(projectID.String(), userID.String())]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *fakeTeamRepo) ListMembers(_ context.Context, projectID uuid.UUID) ([]model.ProjectTeamMembership, error) {
	var out []model.ProjectTeamMembership
	for _, m := range r.memberships {
		if m.ProjectID == projectID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeTeamRepo) Upsert(_ context.Context, membership *model.ProjectTeamMembership) error {
	k := key(membership.ProjectID.String(), membership.UserID.String())
	if existing, ok := r.memberships[k]; ok {
		existing.Role = membership.Role
		return nil
	}
	if membership.ID == uuid.Nil {
		membership.ID = uuid.New()
	}
	r.memberships[k] = membership
	return nil
}

func (r *fakeTeamRepo) UpdateRole(_ context.Context, projectID, userID uuid.UUID, role model.ProjectRole) error {
	if m, ok := r.memberships[key(projectID.String(), userID.String())]; ok {
		m.Role = role
	}
	return nil
}

func (r *fakeTeamRepo) TeamUserIDs(_ context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, m := range r.memberships {
		if m.ProjectID == projectID {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (r *fakeTeamRepo) AdminUserIDs(_ context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, m := range r.memberships {
		if m.ProjectID == projectID && m.Role == model.ProjectRoleAdmin {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (r *fakeTeamRepo) AdminProjectIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, m := range r.memberships {
		if m.UserID == userID && m.Role == model.ProjectRoleAdmin {
			ids = append(ids, m.ProjectID)
		}
	}
	return ids, nil
}

func (r *fakeTeamRepo) Remove(_ context.Context, projectID, userID uuid.UUID) error {
	delete(r.memberships, key(projectID.String(), userID.String()))
	return nil
}

func (r *fakeTeamRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	for k, m := range r.memberships {
		if m.UserID == userID {
			delete(r.memberships, k)
		}
	}
	return nil
}

// --- expenses ---

type fakeExpenseRepo struct {
	expenses map[uuid.UUID]*model.Expense
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{expenses: map[uuid.UUID]*model.Expense{}}
}

func (r *fakeExpenseRepo) add(expense *model.Expense) *model.Expense {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	r.expenses[expense.ID] = expense
	return expense
}

func (r *fakeExpenseRepo) Create(_ context.Context, expense *model.Expense) error {
	r.add(expense)
	return nil
}

func (r *fakeExpenseRepo) Update(_ context.Context, expense *model.Expense) error {
	r.expenses[expense.ID] = expense
	return nil
}

func (r *fakeExpenseRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.expenses, id)
	return nil
}

func (r *fakeExpenseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Expense, error) {
	expense, ok := r.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *expense
	return &clone, nil
}

func (r *fakeExpenseRepo) List(_ context.Context, filter repository.ExpenseFilter) ([]model.Expense, int64, error) {
	var out []model.Expense
	for _, expense := range r.expenses {
		if filter.ProjectID != nil && expense.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.Status != "" && expense.Status != filter.Status {
			continue
		}
		out = append(out, *expense)
	}
	return out, int64(len(out)), nil
}

func (r *fakeExpenseRepo) CountPendingBySubmitter(_ context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	for _, expense := range r.expenses {
		if expense.SubmittedBy == userID && expense.Status == model.ExpenseStatusPending {
			total++
		}
	}
	return total, nil
}

func (r *fakeExpenseRepo) CountByCategory(_ context.Context, categoryID uuid.UUID) (int64, error) {
	var total int64
	for _, expense := range r.expenses {
		if expense.CategoryID != nil && *expense.CategoryID == categoryID {
			total++
		}
	}
	return total, nil
}

func (r *fakeExpenseRepo) SumApprovedByProject(_ context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, expense := range r.expenses {
		if expense.ProjectID != projectID {
			continue
		}
		if expense.Status == model.ExpenseStatusApproved || expense.Status == model.ExpenseStatusPaid {
			sum = sum.Add(expense.Amount)
		}
	}
	return sum, nil
}

func (r *fakeExpenseRepo) SumApprovedByCategory(_ context.Context, categoryID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, expense := range r.expenses {
		if expense.CategoryID == nil || *expense.CategoryID != categoryID {
			continue
		}
		if expense.Status == model.ExpenseStatusApproved || expense.Status == model.ExpenseStatusPaid {
			sum = sum.Add(expense.Amount)
		}
	}
	return sum, nil
}

func (r *fakeExpenseRepo) NullifyApprover(_ context.Context, userID uuid.UUID) error {
	for _, expense := range r.expenses {
		if expense.ApprovedBy != nil && *expense.ApprovedBy == userID {
			expense.ApprovedBy = nil
		}
	}
	return nil
}

// --- budget ---

type fakeBudgetRepo struct {
	categories map[uuid.UUID]*model.BudgetCategory
	versions   []model.BudgetVersion
}

func newFakeBudgetRepo() *fakeBudgetRepo {
	return &fakeBudgetRepo{categories: map[uuid.UUID]*model.BudgetCategory{}}
}

func (r *fakeBudgetRepo) addCategory(category *model.BudgetCategory) *model.BudgetCategory {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	r.categories[category.ID] = category
	return category
}

func (r *fakeBudgetRepo) CreateCategory(_ context.Context, category *model.BudgetCategory) error {
	r.addCategory(category)
	return nil
}

func (r *fakeBudgetRepo) UpdateCategory(_ context.Context, category *model.BudgetCategory) error {
	r.categories[category.ID] = category
	return nil
}

func (r *fakeBudgetRepo) DeleteCategory(_ context.Context, id uuid.UUID) error {
	delete(r.categories, id)
	return nil
}

func (r *fakeBudgetRepo) FindCategoryByID(_ context.Context, id uuid.UUID) (*model.BudgetCategory, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return category, nil
}

func (r *fakeBudgetRepo) FindCategoryByName(_ context.Context, projectID uuid.UUID, name string) (*model.BudgetCategory, error) {
	for _, category := range r.categories {
		if category.ProjectID == projectID && category.Name == name {
			return category, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBudgetRepo) ListCategories(_ context.Context, projectID uuid.UUID) ([]model.BudgetCategory, error) {
	var out []model.BudgetCategory
	for _, category := range r.categories {
		if category.ProjectID == projectID {
			out = append(out, *category)
		}
	}
	return out, nil
}

func (r *fakeBudgetRepo) CreateVersion(_ context.Context, version *model.BudgetVersion) error {
	r.versions = append(r.versions, *version)
	return nil
}

func (r *fakeBudgetRepo) NextVersionNo(_ context.Context, projectID uuid.UUID) (int, error) {
	max := 0
	for _, v := range r.versions {
		if v.ProjectID == projectID && v.VersionNo > max {
			max = v.VersionNo
		}
	}
	return max + 1, nil
}

func (r *fakeBudgetRepo) ListVersions(_ context.Context, projectID uuid.UUID, _, _ int) ([]model.BudgetVersion, int64, error) {
	var out []model.BudgetVersion
	for _, v := range r.versions {
		if v.ProjectID == projectID {
			out = append(out, v)
		}
	}
	return out, int64(len(out)), nil
}

// --- business units ---

type fakeBusinessUnitRepo struct {
	units map[uuid.UUID]*model.BusinessUnit
}

func newFakeBusinessUnitRepo() *fakeBusinessUnitRepo {
	return &fakeBusinessUnitRepo{units: map[uuid.UUID]*model.BusinessUnit{}}
}

func (r *fakeBusinessUnitRepo) add(unit *model.BusinessUnit) *model.BusinessUnit {
	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}
	r.units[unit.ID] = unit
	return unit
}

func (r *fakeBusinessUnitRepo) Create(_ context.Context, unit *model.BusinessUnit) error {
	r.add(unit)
	return nil
}

func (r *fakeBusinessUnitRepo) Update(_ context.Context, unit *model.BusinessUnit) error {
	r.units[unit.ID] = unit
	return nil
}

func (r *fakeBusinessUnitRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.units, id)
	return nil
}

func (r *fakeBusinessUnitRepo) FindByID(_ context.Context, id uuid.UUID) (*model.BusinessUnit, error) {
	unit, ok := r.units[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return unit, nil
}

func (r *fakeBusinessUnitRepo) FindByName(_ context.Context, name string) (*model.BusinessUnit, error) {
	for _, unit := range r.units {
		if unit.Name == name {
			return unit, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBusinessUnitRepo) List(_ context.Context, _ string, _, _ int) ([]model.BusinessUnit, int64, error) {
	var out []model.BusinessUnit
	for _, unit := range r.units {
		out = append(out, *unit)
	}
	return out, int64(len(out)), nil
}

// --- milestones ---

type fakeMilestoneRepo struct {
	milestones map[uuid.UUID]*model.Milestone
}

func newFakeMilestoneRepo() *fakeMilestoneRepo {
	return &fakeMilestoneRepo{milestones: map[uuid.UUID]*model.Milestone{}}
}

func (r *fakeMilestoneRepo) Create(_ context.Context, milestone *model.Milestone) error {
	if milestone.ID == uuid.Nil {
		milestone.ID = uuid.New()
	}
	r.milestones[milestone.ID] = milestone
	return nil
}

func (r *fakeMilestoneRepo) Update(_ context.Context, milestone *model.Milestone) error {
	r.milestones[milestone.ID] = milestone
	return nil
}

func (r *fakeMilestoneRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.milestones, id)
	return nil
}

func (r *fakeMilestoneRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Milestone, error) {
	milestone, ok := r.milestones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return milestone, nil
}

func (r *fakeMilestoneRepo) ListByProject(_ context.Context, projectID uuid.UUID, _, _ int) ([]model.Milestone, int64, error) {
	var out []model.Milestone
	for _, milestone := range r.milestones {
		if milestone.ProjectID == projectID {
			out = append(out, *milestone)
		}
	}
	return out, int64(len(out)), nil
}

// --- notifications ---

type fakeNotificationRepo struct {
	mu        sync.Mutex // fan-out inserts concurrently
	rows      []model.Notification
	failFor   map[uuid.UUID]error
	createErr error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{failFor: map[uuid.UUID]error{}}
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failFor[notification.UserID]; ok {
		return err
	}
	if r.createErr != nil {
		return r.createErr
	}
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	r.rows = append(r.rows, *notification)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, _, _ int) ([]model.Notification, int64, error) {
	var out []model.Notification
	for _, n := range r.rows {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID) (int64, error) {
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].UserID == userID {
			r.rows[i].IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for i := range r.rows {
		if r.rows[i].UserID == userID {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) UnreadCount(_ context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	for _, n := range r.rows {
		if n.UserID == userID && !n.IsRead {
			total++
		}
	}
	return total, nil
}

func (r *fakeNotificationRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	var kept []model.Notification
	for _, n := range r.rows {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	r.rows = kept
	return nil
}

// --- audit ---

type fakeAuditRepo struct {
	entries []model.AdminActivityLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AdminActivityLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ repository.AuditFilter) ([]model.AdminActivityLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

func (r *fakeAuditRepo) actions() []string {
	var out []string
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}
