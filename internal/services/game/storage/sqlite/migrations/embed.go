package migrations

import "embed"

//go:embed scores/*.sql
var ScoresFS embed.FS
