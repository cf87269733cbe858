// Package terminal defines the source capability the checker consumes and
// the adapters for each supported terminal website.
package terminal
