package engine

import (
	"github.com/objectfs/objectfs/internal/idgen"
	"github.com/objectfs/objectfs/internal/store"
)

// nextVersionID picks the version-id a new write on a bucket in the given versioning status
// receives (spec.md §4.4.6): Enabled mints a fresh, strictly-increasing id; Unconfigured and
// Suspended both write under the distinguished "null" id.
func nextVersionID(status store.VersioningStatus, ids *idgen.Generator) string {
	if status == store.VersioningEnabled {
		return ids.NewVersionID()
	}
	return idgen.NullVersionID
}

// archiveOnWrite decides what, if anything, happens to the prior head when a new write replaces
// it, per the state-machine table (spec.md §4.4.6):
//
//   - Unconfigured: the prior head is simply overwritten; nothing is archived.
//   - Enabled: the prior head — whatever version-id it carried, including "null" left over from
//     an earlier Unconfigured/Suspended write — becomes an archived VersionRecord.
//   - Suspended: if the prior head already carried the "null" id, it is overwritten in place
//     (Suspended writes never produce more than one "null" version); otherwise the prior head was
//     minted while Enabled and is archived, same as the Enabled case.
func archiveOnWrite(status store.VersioningStatus, current *store.ObjectRecord) *store.ObjectRecord {
	switch status {
	case store.VersioningEnabled:
		a := current.Clone()
		a.IsLatest = false
		return a
	case store.VersioningSuspended:
		if current.VersionID == idgen.NullVersionID {
			return nil
		}
		a := current.Clone()
		a.IsLatest = false
		return a
	default: // Unconfigured
		return nil
	}
}
