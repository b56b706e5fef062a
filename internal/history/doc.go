// Package history keeps a local ledger of migration runs.
//
// Each completed or aborted run is appended to a SQLite database in the
// user's data directory, so operators can see how a long migration has
// progressed over several invocations without digging through log files.
package history
