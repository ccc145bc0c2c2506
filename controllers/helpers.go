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


package controllers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// etag identifies one rendering of a record. Related records are part of the body and change it as well.
func etag(id uint, body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf(`W/"%d-%s"`, id, hex.EncodeToString(sum[:8]))
}

func etagMatches(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == tag {
			return true
		}
	}
	return false
}

// conditionalJSON answers with 304 if the client already holds the current response body.
func conditionalJSON(ctx shared.Context, id uint, updatedAt time.Time, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return echo.NewHTTPError(500, "could not render response").WithInternal(err)
	}
	tag := etag(id, b)
	ctx.Response().Header().Set("ETag", tag)
	ctx.Response().Header().Set("Last-Modified", updatedAt.UTC().Format(http.TimeFormat))

	if inm := ctx.Request().Header.Get("If-None-Match"); inm != "" && etagMatches(inm, tag) {
		return ctx.NoContent(http.StatusNotModified)
	}
	return ctx.JSONBlob(http.StatusOK, b)
}

// notFoundOr maps missing records to 404 and everything else to 500.
func notFoundOr(err error, what string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return echo.NewHTTPError(404, fmt.Sprintf("could not find %s", what)).WithInternal(err)
	}
	return echo.NewHTTPError(500, fmt.Sprintf("could not load %s", what)).WithInternal(err)
}

// packageName reads the name from ?name= or the path. Names like library/redis arrive path-escaped.
func packageName(ctx shared.Context) (string, error) {
	if name := strings.TrimSpace(ctx.QueryParam("name")); name != "" {
		return name, nil
	}
	name, err := url.PathUnescape(ctx.Param("name"))
	if err != nil {
		return "", echo.NewHTTPError(400, "invalid package name").WithInternal(err)
	}
	if name == "" {
		return "", echo.NewHTTPError(400, "package name is required")
	}
	return name, nil
}
