package models

// DownloadResult is the outcome of downloading one book's PDF.
type DownloadResult struct {
	Key     string `json:"key" yaml:"key"`
	Title   string `json:"title" yaml:"title"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Count   int    `json:"count" yaml:"count"` // download counter after this download
	Success bool   `json:"success" yaml:"success"`
	Error   error  `json:"-" yaml:"-"`
	Message string `json:"error,omitempty" yaml:"error,omitempty"`
}

// BulkDownloadResult summarizes a multi-book download run.
type BulkDownloadResult struct {
	Total           int              `json:"total" yaml:"total"`
	Succeeded       int              `json:"succeeded" yaml:"succeeded"`
	Failed          int              `json:"failed" yaml:"failed"`
	OutputDirectory string           `json:"output_directory" yaml:"output_directory"`
	ManifestPath    string           `json:"-" yaml:"-"`
	Results         []DownloadResult `json:"results" yaml:"results"`
}
