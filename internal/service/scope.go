package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/studentfilter"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

// requireRole rejects missing claims and roles outside the allowed set.
func requireRole(actor *models.JWTClaims, roles ...models.UserRole) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return appErrors.ErrForbidden
}

// scopeCriteria applies the caller's visibility to a student query. Officers are pinned
// to their own college; super admins keep whatever college filter they asked for.
func scopeCriteria(c studentfilter.Criteria, actor *models.JWTClaims) (studentfilter.Criteria, error) {
	if err := requireRole(actor, models.RoleSuperAdmin, models.RolePlacementOfficer); err != nil {
		return c, err
	}
	if actor.IsOfficer() {
		if actor.CollegeID == "" {
			return c, appErrors.Clone(appErrors.ErrForbidden, "officer account is not linked to a college")
		}
		c.CollegeID = actor.CollegeID
	}
	return c, nil
}

// canManage reports whether the actor may act on a student record.
func canManage(actor *models.JWTClaims, student *models.Student) bool {
	if actor.IsSuperAdmin() {
		return true
	}
	return actor.IsOfficer() && actor.CollegeID != "" && actor.CollegeID == student.CollegeID
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// loadManagedStudent fetches a student the actor may act on. Students outside an
// officer's college are reported as not found.
func loadManagedStudent(ctx context.Context, repo studentFinder, id string, actor *models.JWTClaims) (*models.Student, error) {
	student, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	if !canManage(actor, student) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}
