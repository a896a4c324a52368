// Package appfs embeds static assets, database migrations included.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
