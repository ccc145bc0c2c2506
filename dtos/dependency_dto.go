package dtos

type DependencyUsage struct {
	Ecosystem       string `json:"ecosystem"`
	PackageName     string `json:"packageName"`
	DependentsCount int64  `json:"dependentsCount"`
	DownloadsCount  int64  `json:"downloadsCount"`
}

type ScannerInfo struct {
	Binary  string `json:"binary"`
	Version string `json:"version"`
}
