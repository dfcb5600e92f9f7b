// Package main hosts the sagelink CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation and
// hands it to the internal packages: run fetches the SageX catalog and drives
// one reconciliation pass, status reports health checks and the persisted
// state, logs tails the log file, and config scaffolds or prints the
// configuration file.
//
// Keep this package thin. Behaviour belongs in internal/; commands only wire
// collaborators together and render their results.
package main
