package services

import (
	"context"

	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/composables"
)

// authorizeHRIS evaluates an hris-module policy rule for the current user.
// Requests without a principal are denied; trusted internal callers (the
// secret-verified scheduled trigger) announce themselves with the
// system-actor context marker.
var authorizeHRIS = func(ctx context.Context, object, action string) error {
	if composables.IsSystemActor(ctx) {
		return nil
	}
	currentUser, err := composables.UseUser(ctx)
	if err != nil || currentUser.IsZero() {
		return authz.UnauthenticatedError(object, action)
	}

	req := authz.NewRequest(
		authz.SubjectForRole(string(currentUser.Role())),
		object,
		action,
	)
	return authz.Use().Authorize(ctx, req)
}
