package apps

import (
	"errors"
	"fmt"
)

var (
	ErrInvalid = errors.New("invalid application request")
	// ErrBotRoleMissing means the configured bot role is not in the catalog.
	ErrBotRoleMissing = errors.New("application bot role is not configured")
	ErrTokenIssue     = errors.New("failed to issue bot token")
	ErrScheduler      = errors.New("scheduler failure")
	ErrProvisioning   = errors.New("failed to provision bot identity")

	ErrInvariantViolation = errors.New("invariant violation")
	ErrBotMissing         = fmt.Errorf("%w: provisioning yielded no bot", ErrInvariantViolation)
)
