// Package sqlite provides the SQLite-backed record store. One database
// file per output directory, one harvest period per database.
package sqlite
