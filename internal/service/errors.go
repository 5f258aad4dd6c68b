package service

import "errors"

var (
	ErrValidation       = errors.New("validation")             // 400
	ErrUnauthenticated  = errors.New("unauthenticated")        // 401
	ErrForbidden        = errors.New("forbidden")              // 403
	ErrGeofence         = errors.New("outside geofence")       // 403
	ErrNotFound         = errors.New("not found")              // 404
	ErrInvalidState     = errors.New("invalid state")          // 409
	ErrPersistence      = errors.New("persistence")            // 500
	ErrCacheUnavailable = errors.New("cart store unavailable") // 503
)
