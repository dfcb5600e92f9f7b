// Package projector writes and removes the library artifacts: a symbolic link
// to the media file and an NFO descriptor beside it. Descriptors are written
// atomically, and a pair whose descriptor cannot be written is rolled back so
// no half pair is left behind.
package projector
