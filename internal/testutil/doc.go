// Package testutil provides helpers shared by grid tests.
package testutil
