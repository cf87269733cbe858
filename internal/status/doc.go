// Package status defines the canonical per-container result record shared by
// terminal adapters, the reconciler, and the output renderers.
package status
