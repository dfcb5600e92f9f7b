// Package jellyfin asks a Jellyfin server to rescan its libraries once a run
// has changed the projected tree.
package jellyfin
