package inspector

import "errors"

var (
	ErrServerNotRunning     = errors.New("inspector is not running")
	ErrServerAlreadyRunning = errors.New("inspector is already running")
	ErrMaxClientsReached    = errors.New("maximum inspector clients reached")
)
