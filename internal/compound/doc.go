// Package compound defines the chemical compound record and the lookup
// service contract the rest of chembot depends on.
//
// # Records
//
// A Record is an immutable snapshot of one compound. A lookup either yields
// a fully populated Record or fails; partial records are not modeled.
// Fields that the upstream database may omit are explicit:
//
//   - Formula uses the "N/A" sentinel (display only, never parsed)
//   - Weight is a Weight value that is either known or unknown
//   - IUPACName, SMILES and InChIKey are empty when absent
//
// # Lookup Service
//
// Service is the abstract client:
//
//	ResolveByName(ctx, term)      -> Record
//	ResolveByID(ctx, cid)         -> Record
//	Random(ctx)                   -> Record
//	Similar(ctx, cid, limit)      -> []CID
//
// Implementations apply a bounded timeout and classify every failure as one
// of the sentinel kinds:
//
//   - ErrNotFound: the term matched nothing
//   - ErrUnavailable: network failure, timeout, non-success status, malformed payload
//   - ErrInvalidInput: reserved for structured validation
//
// Use KindOf to classify an arbitrary error; anything unrecognized is
// treated as unavailable.
//
// # Caching
//
// NewCache wraps any Service with a TTL cache. Concurrent identical lookups
// share one upstream call. Random is never cached and errors are never stored.
package compound
