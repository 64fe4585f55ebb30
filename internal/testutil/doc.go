// Package testutil provides deterministic fixtures shared by package tests
// and the scenario harness: per-team event feeds, predictable ids and an
// in-memory transport.
package testutil
