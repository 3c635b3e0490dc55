package models

// DownloadRequest describes a package submission. It is built per call and
// never persisted; validation happens in the client before submission.
type DownloadRequest struct {
	Name      string   `json:"name"`
	Links     []string `json:"links"`
	Category  string   `json:"category"`
	AutoStart bool     `json:"auto_start"`
}

// AddResult is the soft outcome of a package submission. Validation
// problems land here with Success=false; remote failures surface as errors
// instead.
type AddResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
