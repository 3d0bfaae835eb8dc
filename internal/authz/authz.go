// Package authz answers every permission question in one place. Route
// handlers and services never compare role strings themselves; they ask the
// Resolver, which checks the system-admin bypass first and otherwise resolves
// project-scoped permissions through the role_permissions reference table.
package authz

import (
	"context"
	"log"
	"sync"
	"time"

	"budgetdesk/internal/model"
	"budgetdesk/internal/repository"

	"github.com/google/uuid"
)

// Identity is the authenticated caller, loaded from the users table by the
// auth middleware and threaded explicitly through handlers and services.
type Identity struct {
	ID         uuid.UUID        `json:"id"`
	Email      string           `json:"email"`
	FullName   string           `json:"full_name"`
	Department string           `json:"department"`
	Role       model.SystemRole `json:"role"`
}

// IsSystemAdmin reports the unconditional bypass role.
func (i Identity) IsSystemAdmin() bool {
	return i.Role == model.SystemRoleAdmin
}

// HasOversight reports blanket read visibility: admins and managers see every
// project. Managers get this for oversight, not because they hold a
// project-admin role anywhere.
func (i Identity) HasOversight() bool {
	return i.Role == model.SystemRoleAdmin || i.Role == model.SystemRoleManager
}

// Resolver decides project-level access. Every lookup failure fails closed:
// an error or empty result means "no permission", never a panic or a leak of
// the underlying error to the caller.
type Resolver interface {
	// HasProjectPermission is project-scope ONLY: it checks the caller's team
	// membership role against the role_permissions mapping and deliberately
	// does NOT include the system-admin bypass. Use Can for guard decisions.
	HasProjectPermission(ctx context.Context, userID, projectID uuid.UUID, permission string) bool

	// IsProjectAdmin reports whether the membership role equals admin.
	IsProjectAdmin(ctx context.Context, userID, projectID uuid.UUID) bool

	// IsProjectCreator reports whether the user is the project's manager/owner.
	IsProjectCreator(ctx context.Context, userID, projectID uuid.UUID) bool

	// Can is the guard: system admins pass unconditionally, project creators
	// pass, otherwise the project-scoped permission decides.
	Can(ctx context.Context, ident Identity, projectID uuid.UUID, permission string) bool

	// AdminProjects returns the projects the caller administers. For system
	// admins and managers it reports all=true (administrative visibility
	// override); otherwise it returns the ids where membership role is admin.
	AdminProjects(ctx context.Context, ident Identity) (ids []uuid.UUID, all bool, err error)

	// InvalidateCache drops cached role permissions (after reseeding).
	InvalidateCache()
}

type permCacheEntry struct {
	codes     []string
	expiresAt time.Time
}

const permCacheTTL = 5 * time.Minute

type resolver struct {
	teams    repository.TeamRepository
	perms    repository.PermissionRepository
	projects repository.ProjectRepository

	permCache sync.Map // model.ProjectRole -> permCacheEntry
}

func NewResolver(
	teams repository.TeamRepository,
	perms repository.PermissionRepository,
	projects repository.ProjectRepository,
) Resolver {
	return &resolver{teams: teams, perms: perms, projects: projects}
}

func (r *resolver) HasProjectPermission(ctx context.Context, userID, projectID uuid.UUID, permission string) bool {
	membership, err := r.teams.GetMembership(ctx, projectID, userID)
	if err != nil {
		// No membership or lookup failure: fail closed.
		return false
	}

	codes, err := r.permissionsForRole(ctx, membership.Role)
	if err != nil {
		log.Printf("authz: permission lookup failed for role %s: %v", membership.Role, err)
		return false
	}

	for _, code := range codes {
		if code == permission {
			return true
		}
	}
	return false
}

func (r *resolver) IsProjectAdmin(ctx context.Context, userID, projectID uuid.UUID) bool {
	membership, err := r.teams.GetMembership(ctx, projectID, userID)
	if err != nil {
		return false
	}
	return membership.Role == model.ProjectRoleAdmin
}

func (r *resolver) IsProjectCreator(ctx context.Context, userID, projectID uuid.UUID) bool {
	project, err := r.projects.FindByID(ctx, projectID)
	if err != nil {
		return false
	}
	return project.ManagerID == userID
}

func (r *resolver) Can(ctx context.Context, ident Identity, projectID uuid.UUID, permission string) bool {
	if ident.IsSystemAdmin() {
		return true
	}
	if r.IsProjectCreator(ctx, ident.ID, projectID) {
		return true
	}
	return r.HasProjectPermission(ctx, ident.ID, projectID, permission)
}

func (r *resolver) AdminProjects(ctx context.Context, ident Identity) ([]uuid.UUID, bool, error) {
	if ident.HasOversight() {
		return nil, true, nil
	}
	ids, err := r.teams.AdminProjectIDs(ctx, ident.ID)
	if err != nil {
		return nil, false, err
	}
	return ids, false, nil
}

func (r *resolver) InvalidateCache() {
	r.permCache.Range(func(key, _ interface{}) bool {
		r.permCache.Delete(key)
		return true
	})
}

// permissionsForRole returns cached or DB-fetched permission codes for a role.
func (r *resolver) permissionsForRole(ctx context.Context, role model.ProjectRole) ([]string, error) {
	if entry, ok := r.permCache.Load(role); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.codes, nil
		}
	}

	codes, err := r.perms.PermissionsForRole(ctx, role)
	if err != nil {
		return nil, err
	}

	r.permCache.Store(role, permCacheEntry{
		codes:     codes,
		expiresAt: time.Now().Add(permCacheTTL),
	})

	return codes, nil
}
