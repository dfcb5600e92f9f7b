// Package sourcefile finds the real media file for a catalog record when the
// path the catalog reports has gone stale.
package sourcefile
