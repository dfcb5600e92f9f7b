// Package reconcile drives one batch pass: each catalog record is resolved to
// a unique filename, its media file is located, and its artifact pair is
// projected when new or changed. A final pass removes artifacts of records
// that left the catalog or whose media is gone, and the state store is
// flushed once at the end.
package reconcile
