package lock

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for retention/legal-hold enforcement. The teacher's internal/object package
// references identically-named errors (ErrObjectUnderLegalHold, ErrNoRetentionConfiguration,
// ErrCannotShortenCompliance, ErrCannotShortenGovernance, ErrInsufficientPermissions,
// NewComplianceRetentionError, NewGovernanceRetentionError) from lock.go, retention.go, and
// manager.go but never defines them anywhere in its tree; they are defined here, fresh, with the
// same names and call-site semantics.
var (
	ErrObjectUnderLegalHold     = errors.New("object is under legal hold")
	ErrNoRetentionConfiguration = errors.New("no retention configuration set")
	ErrCannotShortenCompliance  = errors.New("cannot shorten or weaken compliance retention")
	ErrCannotShortenGovernance  = errors.New("cannot shorten governance retention without bypass")
	ErrInsufficientPermissions  = errors.New("insufficient permissions for this operation")
)

// RetentionError reports a destructive operation blocked by an active retention window.
type RetentionError struct {
	Mode            string
	RetainUntilDate time.Time
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("object is retained under %s mode until %s", e.Mode, e.RetainUntilDate.Format(time.RFC3339))
}

// NewComplianceRetentionError reports a delete/overwrite blocked by an absolute Compliance-mode
// retention window.
func NewComplianceRetentionError(retainUntil time.Time) error {
	return &RetentionError{Mode: "COMPLIANCE", RetainUntilDate: retainUntil}
}

// NewGovernanceRetentionError reports a delete/overwrite blocked by a Governance-mode retention
// window the caller did not bypass.
func NewGovernanceRetentionError(retainUntil time.Time) error {
	return &RetentionError{Mode: "GOVERNANCE", RetainUntilDate: retainUntil}
}
