package shared

import "errors"

var (
	// ErrOrgRequired indicates the organisation scope is missing from the request.
	ErrOrgRequired = errors.New("organisation context required")
)
