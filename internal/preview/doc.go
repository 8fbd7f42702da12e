// Package preview turns a snapshot of project files into one self-contained
// PreviewDocument.
//
// The pipeline is:
//
//	Scan      bare package specifiers referenced by script files
//	Compile   every script file to a CommonJS module, fail-fast
//	Assemble  markup entry + inlined styles + preloaded packages
//	          + generated module loader + console/safety shims
//
// Scanning is textual and best-effort. It can report specifiers that only
// appear in comments or strings, and it misses computed specifiers such as
// require(name) or import(`./${x}`).
package preview
