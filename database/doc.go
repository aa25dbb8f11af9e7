// Package database provides connection management, configuration loading,
// schema migrations, SQL seed files, query hooks, storage error
// classification, and health checks built on top of Bun.
package database
