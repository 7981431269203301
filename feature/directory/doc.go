// Package directory provides access to the local person/group directory.
//
// The directory is the authoritative side of the sync: when it disagrees
// with the mailing list, the directory wins. The sync engine consumes it
// through three narrow surfaces:
//
//   - GroupSnapshot projections of eligible groups and their members,
//     built with paged, non-tracking queries (see Store.EligibleGroups)
//   - keyed person lookups (by id and by email) used during identity
//     resolution
//   - a single write path, CreatePerson, used when a remote list member
//     has no local counterpart and onboarding is set to auto-create
//
// Eligibility is defined on Person.EligibleForSync: not deceased, active
// record status, active email, non-empty address, mass email allowed.
package directory
