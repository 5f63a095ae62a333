// Package lock implements LockEnforcer: retention-mode/date and legal-hold lookups that gate
// destructive operations on object versions.
package lock

import (
	"context"
	"time"

	"github.com/objectfs/objectfs/internal/store"
)

// Enforcer is the LockEnforcer component (SPEC_FULL §4.7), grounded on the teacher's
// internal/object/lock.go ObjectLocker and internal/object/retention.go RetentionPolicyManager.
type Enforcer struct {
	store store.Store
	clock func() time.Time
}

// New returns an Enforcer backed by the given Store.
func New(s store.Store) *Enforcer {
	return &Enforcer{store: s, clock: time.Now}
}

// GetRetention returns the retention of the referenced version, or nil if unset.
func (e *Enforcer) GetRetention(ctx context.Context, bucket, key, versionID string) (*store.Retention, error) {
	rec, err := e.store.GetVersion(ctx, bucket, key, versionID)
	if err != nil {
		return nil, err
	}
	return rec.Retention, nil
}

// PutRetention records a retention window onto a specific version. Compliance retention can never
// be weakened or shortened (extend-only); Governance can be weakened only with bypassGovernance.
func (e *Enforcer) PutRetention(ctx context.Context, bucket, key, versionID string, next *store.Retention, bypassGovernance bool) error {
	rec, err := e.store.GetVersion(ctx, bucket, key, versionID)
	if err != nil {
		return err
	}
	if err := e.validateModification(rec.Retention, next, bypassGovernance); err != nil {
		return err
	}
	return e.store.UpdateRecord(ctx, bucket, key, versionID, func(r *store.ObjectRecord) {
		r.Retention = next
	})
}

// validateModification enforces SPEC_FULL §4.7's mode-upgrade-only, extend-only rules.
// Grounded on internal/object/retention.go's ValidateRetentionModification and
// internal/object/lock.go's canModifyRetention.
func (e *Enforcer) validateModification(current, next *store.Retention, bypassGovernance bool) error {
	if current == nil {
		return nil
	}
	switch current.Mode {
	case store.RetentionCompliance:
		if next == nil {
			return ErrCannotShortenCompliance
		}
		if next.Mode != store.RetentionCompliance {
			return ErrCannotShortenCompliance
		}
		if next.RetainUntilDate.Before(current.RetainUntilDate) {
			return ErrCannotShortenCompliance
		}
	case store.RetentionGovernance:
		if bypassGovernance {
			return nil
		}
		if next == nil {
			return ErrCannotShortenGovernance
		}
		if next.Mode == store.RetentionGovernance && next.RetainUntilDate.Before(current.RetainUntilDate) {
			return ErrCannotShortenGovernance
		}
	}
	return nil
}

// PutLegalHold toggles the legal-hold flag on a specific version. Legal hold toggles freely,
// independent of retention mode.
func (e *Enforcer) PutLegalHold(ctx context.Context, bucket, key, versionID string, status store.LegalHoldStatus) error {
	return e.store.UpdateRecord(ctx, bucket, key, versionID, func(r *store.ObjectRecord) {
		r.LegalHold = status
	})
}

// GetLegalHold returns the legal-hold status of the referenced version.
func (e *Enforcer) GetLegalHold(ctx context.Context, bucket, key, versionID string) (store.LegalHoldStatus, error) {
	rec, err := e.store.GetVersion(ctx, bucket, key, versionID)
	if err != nil {
		return "", err
	}
	return rec.LegalHold, nil
}

// CanDestroy reports whether rec may be permanently deleted or overwritten right now.
// bypassGovernance asserts the caller holds a governance-bypass capability.
func (e *Enforcer) CanDestroy(rec *store.ObjectRecord, bypassGovernance bool) bool {
	if rec.LegalHold == store.LegalHoldOn {
		return false
	}
	if rec.Retention == nil {
		return true
	}
	if !e.clock().Before(rec.Retention.RetainUntilDate) {
		// Retention window has already elapsed.
		return true
	}
	switch rec.Retention.Mode {
	case store.RetentionCompliance:
		return false
	case store.RetentionGovernance:
		return bypassGovernance
	default:
		return true
	}
}

// EnforceDestroy is a convenience wrapper returning the exact sentinel error CanDestroy's false
// case implies, for callers (ObjectEngine) that want an error rather than a bool.
func (e *Enforcer) EnforceDestroy(rec *store.ObjectRecord, bypassGovernance bool) error {
	if rec.LegalHold == store.LegalHoldOn {
		return ErrObjectUnderLegalHold
	}
	if rec.Retention == nil || !e.clock().Before(rec.Retention.RetainUntilDate) {
		return nil
	}
	switch rec.Retention.Mode {
	case store.RetentionCompliance:
		return NewComplianceRetentionError(rec.Retention.RetainUntilDate)
	case store.RetentionGovernance:
		if bypassGovernance {
			return nil
		}
		return NewGovernanceRetentionError(rec.Retention.RetainUntilDate)
	}
	return nil
}
