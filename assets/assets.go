// Package assets bundles the runtime files asg needs when no assets
// directory sits next to the executable.
package assets

import "embed"

//go:embed std.lua livereload.js
var FS embed.FS
