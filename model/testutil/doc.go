// Package testutil writes checkpoint fixtures for model tests.
package testutil
