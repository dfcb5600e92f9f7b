// Package fileutil provides the filesystem primitives the projector builds on:
// crash-safe atomic writes, tolerant removal, and empty-directory pruning.
package fileutil
