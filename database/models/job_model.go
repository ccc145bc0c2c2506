// Copyright (C) 2026 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package models

import "time"

type JobKind string

const (
	JobKindBOMSync     JobKind = "bom_sync"
	JobKindPackageSync JobKind = "package_sync"
	JobKindCatalogSync JobKind = "catalog_sync"
)

// Job is a unit of work in the durable queue. A job is delivered at least once: if a worker dies
// while holding it, it becomes visible again after LockedUntil.
type Job struct {
	ID          uint       `json:"id" gorm:"primarykey"`
	Kind        JobKind    `json:"kind" gorm:"type:varchar(32);not null;index:idx_jobs_kind_available,priority:1"`
	EntityKey   string     `json:"entityKey" gorm:"not null"`
	LockToken   string     `json:"-" gorm:"not null;default:''"`
	Attempts    int        `json:"attempts"`
	AvailableAt time.Time  `json:"availableAt" gorm:"not null;index:idx_jobs_kind_available,priority:2"`
	LockedUntil *time.Time `json:"lockedUntil"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j Job) LockKey() string {
	return string(j.Kind) + ":" + j.EntityKey
}
