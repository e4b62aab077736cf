package chalkline

import _ "embed"

// SchemaSQL is the full database schema, applied once to a fresh database
// by database.DB.InitSchema.
//
//go:embed schema.sql
var SchemaSQL []byte
