// Package remote converges entities in a remote collection API toward a
// desired state.
//
// The remote side is the *arr-style REST surface: a collection endpoint
// supporting GET (list), POST (create), and PUT /{id} (replace), with
// entities keyed by an opaque numeric id and a human-readable name, and a
// static API key carried in the X-Api-Key header.
//
// Reconcile lists the collection fresh on every call, matches the desired
// entity by identity (exact name, then implementation, then optional fuzzy
// containment), and either merges the desired attributes into the matched
// entity and PUTs it back, or POSTs a new one. The merge is conservative:
// the remote's id and bookkeeping attributes are untouched, only
// explicitly desired attributes are overwritten, settings fields are
// merged by name, and tag sets are unioned so manual additions survive.
// An update with an empty diff performs no write at all, which is what
// makes repeated runs cheap and safe.
//
// A create that loses a race and is rejected as a duplicate name is
// resolved by re-listing and updating the entity that won, rather than
// surfacing the race to the caller.
//
// Desired entities are validated against a per-kind attribute allowlist
// before any network call, so a typo in a caller-supplied attribute fails
// fast instead of producing an opaque remote rejection.
package remote
