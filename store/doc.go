// Package store provides the single-table DynamoDB access layer for the
// canopy site engine.
//
// Every record lives in one table addressed by a composite (pk, sk) key.
// The partition key is a tenant id, except tenant configuration itself which
// lives in the system-wide TENANT partition. Sort key prefixes distinguish
// record kinds: NODE#, ROUTE#, PRODUCT#, EDGE#.
//
// The store exposes exactly the primitives the engine's invariants are built
// on:
//
//   - point get and sort-key-prefix query
//   - single conditional put/delete/update
//   - atomic multi-item transactions (Tx) with per-item conditions
//
// Cross-item consistency is achieved only through these: route uniqueness is
// a conditional put, slug changes and tenant provisioning are transactions,
// edge rebuilds fold into a transaction when they fit the item cap.
//
// # Errors
//
// The package defines the error kinds every operation reports:
//
//   - [ErrNotFound] - referenced record absent
//   - [ErrConflict] - a uniqueness or version condition failed
//   - [ErrInvalidInput] - rejected before any store access
//   - [ErrUnavailable] - the store failed; safe to retry the whole operation
//
// Transactions map a failed per-item condition back to the domain error the
// caller registered for that item, so a slug collision is distinguishable
// from a stale version or a plain outage.
package store
