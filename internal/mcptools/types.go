package mcptools

// --- MCP Tool Input/Output Types ---
// The MCP Go SDK derives each tool's JSON schema from these struct tags.
// All paths are relative to the workspace root.

// ReadFileInput is the input for the read_file tool.
type ReadFileInput struct {
	Path string `json:"path" jsonschema:"file path relative to the workspace root"`
}

// ReadFileOutput is the result of the read_file tool.
type ReadFileOutput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// WriteFileInput is the input for the write_file tool.
type WriteFileInput struct {
	Path    string `json:"path" jsonschema:"file path relative to the workspace root"`
	Content string `json:"content" jsonschema:"complete file content, written verbatim"`
}

// WriteFileOutput is the result of the write_file tool.
type WriteFileOutput struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Bytes int    `json:"bytes"`
}

// ListDirectoryInput is the input for the list_directory tool.
type ListDirectoryInput struct {
	Path    string `json:"path,omitempty" jsonschema:"directory relative to the workspace root (default: root)"`
	Pattern string `json:"pattern,omitempty" jsonschema:"glob matched against entry names (default: *)"`
}

// DirEntry is one listed directory entry.
type DirEntry struct {
	Path  string `json:"path"`
	IsDir bool   `json:"isDir"`
	Size  int64  `json:"size"`
}

// ListDirectoryOutput is the result of the list_directory tool.
type ListDirectoryOutput struct {
	Entries []DirEntry `json:"entries"`
}

// CreateDirectoryInput is the input for the create_directory tool.
type CreateDirectoryInput struct {
	Path string `json:"path" jsonschema:"directory relative to the workspace root; parents are created"`
}

// CreateDirectoryOutput is the result of the create_directory tool.
type CreateDirectoryOutput struct {
	Path string `json:"path"`
}

// CreateSpecificationInput is the input for the create_specification tool.
type CreateSpecificationInput struct {
	Title   string `json:"title" jsonschema:"specification title; also names the file"`
	Content string `json:"content" jsonschema:"markdown body placed under the title"`
}

// SpecificationOutput is the result of the specification tools.
type SpecificationOutput struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
}

// ReadSpecificationInput is the input for the read_specification tool.
type ReadSpecificationInput struct {
	Name string `json:"name" jsonschema:"specification file name, with or without .md"`
}

// ListSpecificationsInput is the input for the list_specifications tool.
type ListSpecificationsInput struct{}

// ListSpecificationsOutput is the result of the list_specifications tool.
type ListSpecificationsOutput struct {
	Specifications []string `json:"specifications"`
}

// ExtractFilesInput is the input for the extract_files tool.
type ExtractFilesInput struct {
	Text string `json:"text" jsonschema:"generated text declaring files via write_file calls, path-comment code blocks or file headings"`
}

// ExtractFilesOutput is the result of the extract_files tool.
type ExtractFilesOutput struct {
	Created  []string `json:"created"`
	Modified []string `json:"modified"`
	Errors   []string `json:"errors"`
	Summary  string   `json:"summary"`
}
