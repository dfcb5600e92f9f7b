// Package catalog defines the explicit record schema the reconciliation engine
// consumes. Loosely typed catalog metadata is mapped into Record by the fetcher
// (see internal/services/sagex) and checked with Validate at the boundary.
package catalog
