// Package types provides shared data structures for the playground engine.
//
// Core Types:
//   - ProjectFile: one (path, content) record of the virtual file store
//   - CompiledModule: transpiled output of one script file, scoped to a build
//   - LogRecord: one console line shown in the terminal pane
//   - PreviewDocument: the assembled, self-contained markup for one build
//
// Request Types:
//   - FileRequest, ChangeSet, CommandRequest: HTTP payloads
//   - WSMessage: WebSocket communication
//
// Example Usage:
//
//	file := types.ProjectFile{Path: "src/index.js", Content: "console.log(1)"}
//	if types.KindOf(file.Path) == types.KindScript {
//	    // compile it
//	}
package types
