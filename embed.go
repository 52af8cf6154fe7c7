package pubstatic

import "embed"

// EmbeddedAssets contains the default stylesheet served at /public/style.css
// and copied into every build.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
