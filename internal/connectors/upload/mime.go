package upload

import (
	"mime"
	"path/filepath"
	"strings"
)

// mimeOverrides maps extensions the platform mime database gets wrong
// or does not know to the types the normalisers expect.
var mimeOverrides = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".ts":       "text/typescript",
	".tsx":      "text/typescript-jsx",
	".jsx":      "text/javascript-jsx",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".bash":     "text/x-shellscript",
	".sql":      "text/x-sql",
	".txt":      "text/plain",
	".log":      "text/plain",
}

// detectMIMEType determines the MIME type of a file from its extension.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		// Extensionless files are treated as plain text.
		return "text/plain"
	}

	if mt, ok := mimeOverrides[ext]; ok {
		return mt
	}

	if mt := mime.TypeByExtension(ext); mt != "" {
		// Strip any charset parameter.
		if idx := strings.Index(mt, ";"); idx != -1 {
			mt = strings.TrimSpace(mt[:idx])
		}
		return mt
	}

	return "application/octet-stream"
}

// isHidden reports whether any element of the path starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
