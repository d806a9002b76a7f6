package db

import _ "embed"

// Schema creates every table the service uses. Statements are idempotent.
//
//go:embed schema.sql
var Schema string
