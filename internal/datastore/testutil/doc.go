// Package testutil provides a SQLite-backed hierarchy store and fixture
// builders for tests of the services that run on top of the datastore.
package testutil
