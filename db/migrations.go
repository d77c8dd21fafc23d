// Package db carries the versioned schema migrations.
package db

import "embed"

// Migrations holds the golang-migrate source files, applied in version order.
//
//go:embed migrations/*.sql
var Migrations embed.FS
