package upload

import "strings"

// ResolveWebURL converts an upload document URI to a local path for opening.
// Handles file:// URIs and bare paths.
func ResolveWebURL(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		return strings.TrimPrefix(uri, "file://")
	}
	// Bare paths pass through unchanged
	return uri
}
