// Package migrations embeds the score database schema. Files are applied in
// lexical order by sqlitemigrate and are never edited once released.
package migrations
