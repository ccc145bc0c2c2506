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

package shared

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxPage bounds the requested page so the offset stays far below any integer limit.
const MaxPage = 1_000_000

type PageInfo struct {
	PageSize int `json:"pageSize"`
	Page     int `json:"page"`
}

func (p PageInfo) Offset() int {
	page := min(max(p.Page, 1), MaxPage)
	return (page - 1) * max(p.PageSize, 0)
}

func (p PageInfo) ApplyOnDB(db DB) DB {
	return db.Offset(p.Offset()).Limit(p.PageSize)
}

type Paged[T any] struct {
	PageInfo
	Total int64 `json:"total"`
	Data  []T   `json:"data"`
}

func (p Paged[T]) Map(f func(T) any) Paged[any] {
	data := make([]any, len(p.Data))
	for i, d := range p.Data {
		data[i] = f(d)
	}
	return Paged[any]{
		PageInfo: p.PageInfo,
		Total:    p.Total,
		Data:     data,
	}
}

func NewPaged[T any](pageInfo PageInfo, total int64, data []T) Paged[T] {
	return Paged[T]{
		PageInfo: pageInfo,
		Total:    total,
		Data:     data,
	}
}

func GetPageInfo(ctx Context) PageInfo {
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	switch {
	case page > MaxPage:
		page = MaxPage
	case page <= 0:
		page = 1
	}

	pageSize, _ := strconv.Atoi(ctx.QueryParam("pageSize"))
	switch {
	case pageSize > 100:
		pageSize = 100
	case pageSize <= 0:
		pageSize = 10
	}

	return PageInfo{
		Page:     page,
		PageSize: pageSize,
	}
}

type SortQuery struct {
	Field    string
	Operator string // asc or desc
}

// GetSortQuery reads ?sort=<field>&order=<asc|desc>. Fields outside allowed are dropped so user
// input never reaches the ORDER BY clause unvalidated.
func GetSortQuery(ctx Context, allowed []string, fallback SortQuery) SortQuery {
	field := ctx.QueryParam("sort")
	if !slices.Contains(allowed, field) {
		return fallback
	}
	operator := strings.ToLower(ctx.QueryParam("order"))
	if operator != "asc" {
		operator = "desc"
	}
	return SortQuery{Field: field, Operator: operator}
}

func (s SortQuery) SQL() string {
	operator := "desc"
	if strings.EqualFold(s.Operator, "asc") {
		operator = "asc"
	}
	return fmt.Sprintf(`"%s" %s`, strings.ReplaceAll(s.Field, `"`, ""), operator)
}

// GetSearch returns the trimmed ?q= value.
func GetSearch(ctx Context) string {
	return strings.TrimSpace(ctx.QueryParam("q"))
}

// LikePattern escapes s for use as a case insensitive substring pattern.
func LikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}
