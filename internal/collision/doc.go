// Package collision guarantees that finalized filenames are unique across the
// library tree and that a collision, once decided, is never decided again.
//
// Every record that maps to a bare filename is recorded as a claim in the
// state store. The first claimant keeps the bare name; when a second claimant
// appears both move to "<bare> - <id>", and the first claimant's bare-named
// artifact pair is removed so no unqualified copy survives.
package collision
