// Package sync is the reconciliation core between the local directory and
// the remote mailing list. Neither side is a source of truth; runs converge
// both toward the directory's view ("local wins") without a transactional
// boundary spanning the two systems.
//
// # Run phases
//
// A run is sequential, each phase depending on the previous one's output:
//
//  1. Fetch the full remote segment and member snapshots. No paging state
//     is kept across runs; re-fetching everything keeps the sync
//     self-healing against drift.
//  2. Remote pass: resolve every member's local identity (see Resolver)
//     and apply the per-member state machine: remove on opt-out, remove
//     and re-push on email drift, upsert on hash drift, onboard unknowns.
//  3. Local pass: push eligible people never seen remotely.
//  4. Segment pass: drive each eligible group's segment to its desired
//     name and membership, then purge orphans. Runs strictly after member
//     upserts because desired membership comes from post-sync eligibility.
//
// # Change detection
//
// Writes to the remote API are the most expensive and rate-limited
// operation in the system, so the engine avoids them whenever nothing
// changed: an order-independent MD5 over the canonical merge-field set is
// stored on the member under the reserved MERGEHASH tag and compared to a
// fresh recomputation each run. A fixed five-minute recent-sync window on
// the link table additionally absorbs duplicate run triggers.
//
// # Failure model
//
// Configuration and baseline-fetch errors abort the run. Everything after
// that is recovered per record: failures accumulate in the Result and the
// run continues. A run with failures reports an aggregate RunError that
// names every cause while still carrying the success count. Partial
// success with an error is the expected shape of a degraded run. Applied
// remote writes are never rolled back; at-least-once delivery with
// idempotent upserts is the contract.
package sync
