// Package sqlite implements auth storage on SQLite.
package sqlite
