// Package state persists reconciliation state in SQLite: the processed-entry
// table (one row per projected record) and the collision claims (every record
// that ever mapped to a bare filename).
//
// Open loads both tables and takes an exclusive lock beside the database so a
// second concurrent run fails fast. Collision claims are journaled as soon as
// they are decided; the processed table is staged in memory and replaced in a
// single transaction by Flush at the end of a run, so a crash mid-run leaves
// the previous table intact.
package state
