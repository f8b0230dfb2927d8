// Package file provides the TOML-backed configuration store and the
// typed settings layered on top of it.
package file
