// Package playground ties the engine together: in-memory project sessions,
// each with its own file store, log, terminal and sandbox host, and the
// build pipeline that turns a file snapshot into a rendered preview.
//
// A build runs scan, compile, preload and assemble against one snapshot
// of the store, then hands the document to the session's sandbox host.
// Builds are not queued. Each build clears the log first, and a build that
// finishes after a newer one has started is not rendered.
package playground
