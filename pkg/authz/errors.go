package authz

import (
	"errors"
	"fmt"

	"github.com/villagepulse/villagepulse/pkg/serrors"
)

const (
	errorCodeForbidden = "AUTHZ_FORBIDDEN"
	errorLocaleKey     = "Authorization.PermissionDenied"
)

// forbiddenError builds a standardized error for denied policies.
func forbiddenError(req Request) *serrors.BaseError {
	return serrors.NewError(
		errorCodeForbidden,
		"permission denied",
		errorLocaleKey,
	).WithTemplateData(map[string]string{
		"object":  req.Object,
		"action":  req.Action,
		"subject": req.Subject,
	})
}

// UnauthenticatedError denies a request that carries no principal. It shares
// the forbidden code so callers map it with IsForbidden.
func UnauthenticatedError(object, action string) *serrors.BaseError {
	return serrors.NewError(
		errorCodeForbidden,
		"authentication required",
		errorLocaleKey,
	).WithTemplateData(map[string]string{
		"object": object,
		"action": action,
	})
}

// IsForbidden reports whether err is a policy denial.
func IsForbidden(err error) bool {
	var base *serrors.BaseError
	return errors.As(err, &base) && base.Code == errorCodeForbidden
}

// configError standardizes configuration validation errors.
func configError(msg string, args ...any) error {
	return fmt.Errorf("authz: "+msg, args...)
}
