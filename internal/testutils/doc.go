// Package testutils provides delegates, workers and mocks shared by the foreman tests.
package testutils
