// Package testsupport provides shared fixtures for package tests: temp-dir
// backed configs, fake media files, and opened state stores.
package testsupport
