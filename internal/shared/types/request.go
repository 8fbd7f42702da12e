package types

// FileRequest carries editor content for one file
type FileRequest struct {
	Content string `json:"content"`
}

// FileChange creates or overwrites one file
type FileChange struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

// ChangeSet is a batch edit, as produced by the assistant flow.
type ChangeSet struct {
	FileChanges   []FileChange `json:"fileChanges"`
	FilesToDelete []string     `json:"filesToDelete"`
}

// CommandRequest is one terminal line
type CommandRequest struct {
	Command string `json:"command"`
}

// CreateProjectRequest seeds a new project
type CreateProjectRequest struct {
	Template string        `json:"template,omitempty"`
	Files    []ProjectFile `json:"files,omitempty"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string        `json:"type"`
	Command string        `json:"command,omitempty"`
	Files   []ProjectFile `json:"files,omitempty"`
}
