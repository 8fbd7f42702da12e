// Package transpiler wraps the external transpiler service that turns
// modern script and JSX/TypeScript sources into CommonJS modules.
//
// A Backend does the work: the in-process esbuild backend, or a remote
// HTTP backend. A Service owns one backend and tracks its lifecycle:
//
//	loading --Init ok--> ready
//	loading --Init err-> failed --Retry--> loading ...
//
// While the service is not ready every Transform fails with ErrUnavailable,
// which blocks new builds until a retry succeeds.
package transpiler
