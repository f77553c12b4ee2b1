// Package query validates evidence queries and applies their defaults.
package query
