// Package ws streams one project to an editor over a WebSocket.
//
// Every connection follows a single project. The server pushes the
// project's log records as they are written, typing animation frames and
// build results; the client sends commands.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - terminal: Run one terminal line ("command")
//   - build: Build the current snapshot
//   - animate: Type "files" into the editor, then build them
//   - stop: Cancel the animation in flight
//
// Message Types (Server → Client):
//   - connected: Connection accepted, carries the connection ID
//   - log: One log record
//   - clear: The log was cleared
//   - terminal: A terminal line finished
//   - frame: One typing animation frame
//   - build: A build finished
//   - error: A command failed
//   - pong: Reply to ping
//
// Example Usage:
//
//	handler := ws.NewHandler(projects, metrics, logger)
//	router.GET("/projects/:id/stream", handler.HandleConnection)
package ws
