package service

import (
	"context"
	"strings"

	"github.com/greencycle/greencycle-server/internal/models"
)

// tierResult is the outcome of one authorization tier. An indeterminate
// result (a storage error during the check) denies that tier only; the
// resolver falls through to the next one.
type tierResult int

const (
	authzGranted tierResult = iota
	authzDenied
	authzIndeterminate
)

// IsAdmin decides whether a user may perform admin-gated actions. Three
// tiers are checked in order, short-circuiting on the first grant:
// the allow-listed administrator email, the admin_users membership table,
// and the is_admin database procedure. Any tier that errors counts as a
// denial for that tier; the overall result is false when no tier grants.
func (s *DefaultService) IsAdmin(ctx context.Context, userID string) bool {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if s.emailTier(ctx, userID) == authzGranted {
		// Keep the membership table in step with the allow-list so future
		// resolutions can succeed on the cheaper membership lookup.
		if !s.EnsureMembership(ctx, userID) {
			s.logger.Error("failed to ensure admin membership for user %s", userID)
		}
		return true
	}

	if s.membershipTier(ctx, userID) == authzGranted {
		return true
	}

	return s.procedureTier(ctx, userID) == authzGranted
}

// EnsureMembership makes sure an admin membership row exists for the user.
// It returns true when the row exists or was inserted, false only on a
// write error. Repeated calls are no-op successes.
func (s *DefaultService) EnsureMembership(ctx context.Context, userID string) bool {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	exists, err := s.repo.HasAdminMembership(ctx, userID)
	if err == nil && exists {
		return true
	}
	if err != nil {
		s.logger.Error("membership lookup failed for user %s: %v", userID, err)
	}

	if err := s.repo.AddAdminMembership(ctx, &models.AdminMembership{UserID: userID}); err != nil {
		s.logger.Error("failed to insert admin membership for user %s: %v", userID, err)
		return false
	}

	return true
}

// emailTier grants when the session identity's email matches the
// allow-listed administrator email, case-insensitively.
func (s *DefaultService) emailTier(ctx context.Context, userID string) tierResult {
	if s.adminEmail == "" {
		return authzDenied
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error("identity lookup failed for user %s: %v", userID, err)
		return authzIndeterminate
	}
	if user == nil {
		return authzDenied
	}

	if strings.EqualFold(user.Email, s.adminEmail) {
		return authzGranted
	}
	return authzDenied
}

// membershipTier grants when an admin_users row exists for the user. A
// lookup error is indeterminate, not a grant or a hard denial.
func (s *DefaultService) membershipTier(ctx context.Context, userID string) tierResult {
	exists, err := s.repo.HasAdminMembership(ctx, userID)
	if err != nil {
		s.logger.Error("membership check failed for user %s: %v", userID, err)
		return authzIndeterminate
	}
	if exists {
		return authzGranted
	}
	return authzDenied
}

// procedureTier invokes the is_admin database procedure. Errors are
// swallowed and treated as a denial.
func (s *DefaultService) procedureTier(ctx context.Context, userID string) tierResult {
	admin, err := s.repo.CallIsAdmin(ctx, userID)
	if err != nil {
		s.logger.Error("is_admin procedure failed for user %s: %v", userID, err)
		return authzDenied
	}
	if admin {
		return authzGranted
	}
	return authzDenied
}
