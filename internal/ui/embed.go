package ui

import "embed"

// Dist embeds the static download page served at the site root. The page is
// presentation only; it talks to the API through /api/verify and swaps view
// state on success.
//
//go:embed all:dist
var Dist embed.FS
