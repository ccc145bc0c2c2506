package dtos

import "time"

// EcosystemsPackageResponse is the subset of the packages.ecosyste.ms package document we read.
type EcosystemsPackageResponse struct {
	Name                     string     `json:"name"`
	Description              *string    `json:"description"`
	Downloads                *int64     `json:"downloads"`
	RepositoryURL            *string    `json:"repository_url"`
	VersionsCount            int        `json:"versions_count"`
	LatestReleaseNumber      *string    `json:"latest_release_number"`
	LatestReleasePublishedAt *time.Time `json:"latest_release_published_at"`
}
