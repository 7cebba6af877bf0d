// Package models defines the domain types for mdview.
package models

// FileRef names a Markdown file directly under the docs directory.
type FileRef struct {
	Name string `json:"name"`
}

// Names returns the file names of refs in order.
func Names(refs []FileRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}
