// Package browser defines the opaque automation session the terminal and
// warehouse adapters drive, plus a minimal W3C WebDriver client that talks to
// a local chromedriver.
package browser
