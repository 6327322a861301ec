package errors

import "fmt"

var (
	ErrAlreadyPresent     = fmt.Errorf("participant already present")
	ErrNotFound           = fmt.Errorf("not found")
	ErrForbidden          = fmt.Errorf("actor is not the author")
	ErrValidation         = fmt.Errorf("validation failed")
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)
