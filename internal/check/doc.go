// Package check drives container status queries across the configured
// terminal sources and reconciles their answers into one record per
// container.
package check
