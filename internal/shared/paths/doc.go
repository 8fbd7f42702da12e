// Package paths normalizes the virtual paths used inside a playground project.
//
// Project paths are "/"-delimited, relative to the project root and never
// escape it:
//
//	"./src//App.jsx"  -> "src/App.jsx"
//	"/index.html"     -> "index.html"
//	"../etc/passwd"   -> ErrInvalid
//
// Directories are implicit. A directory exists when some file path starts
// with "<dir>/"; an empty directory is kept alive by "<dir>/.placeholder".
package paths
