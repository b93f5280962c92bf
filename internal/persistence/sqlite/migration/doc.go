// Package migration applies versioned SQL files to a SQLite database.
//
// Files are named {version}_{description}.sql (for example
// "001_initial_schema.sql") and are read from any fs.FS, usually an embedded
// directory. Applied versions are recorded in the schema_migrations table in
// the same transaction as the statements of the file, so a failed file leaves
// no trace.
//
//	scanner := migration.NewFileScanner(files, "migrations")
//	manager := migration.NewMigrationManager(scanner, migration.NewSQLiteExecutor(db), logger)
//	applied, err := manager.RunMigrations(ctx)
package migration
