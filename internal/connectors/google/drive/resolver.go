package drive

import "strings"

// ResolveWebURL converts a Drive document URI to a browser URL.
// gdrive://files/{id} -> https://drive.google.com/file/d/{id}/view
func ResolveWebURL(uri string) string {
	if strings.HasPrefix(uri, "gdrive://files/") {
		fileID := strings.TrimPrefix(uri, "gdrive://files/")
		return "https://drive.google.com/file/d/" + fileID + "/view"
	}
	return ""
}
