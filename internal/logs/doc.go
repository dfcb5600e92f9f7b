// Package logs reads the sagelink log file for the CLI.
//
// Last returns the trailing lines of a file with bounded memory, and Follow
// polls for lines appended afterwards, restarting from the beginning when the
// file is truncated. Both accept a Matcher so callers can narrow output to a
// single run via RunMatcher.
package logs
