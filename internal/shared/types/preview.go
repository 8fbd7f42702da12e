package types

import "time"

// CompiledModule is the transpiled body of one script file. The code expects
// require, module and exports to be supplied by the loader.
type CompiledModule struct {
	Path string `json:"path"`
	Code string `json:"code"`
}

// PreviewDocument is the assembled markup for one build. It is never
// modified after creation; the next build replaces it.
type PreviewDocument struct {
	BuildID   string    `json:"build_id"`
	HTML      string    `json:"-"`
	Entry     string    `json:"entry,omitempty"`
	Scripts   []string  `json:"scripts,omitempty"`
	Packages  []string  `json:"packages,omitempty"`
	Title     string    `json:"title,omitempty"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}
