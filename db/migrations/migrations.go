// Package migrations embeds the SQL schema for every supported dialect.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// For returns the migration set for a database driver name.
func For(driver string) (fs.FS, error) {
	switch driver {
	case "postgres", "sqlite":
		return fs.Sub(files, driver)
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
}
