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

package databasetypes

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"

	"gorm.io/datatypes"
)

// JSONB stores a decoded json object. Postgres returns jsonb as []byte, sqlite returns text.
// Numbers are decoded as json.Number.
type JSONB map[string]any

func (jsonField JSONB) Value() (driver.Value, error) {
	if jsonField == nil {
		return nil, nil
	}
	return datatypes.JSONMap(jsonField).Value()
}

func (jsonField *JSONB) Scan(value any) error {
	if value == nil {
		*jsonField = nil
		return nil
	}
	var m datatypes.JSONMap
	if err := m.Scan(value); err != nil {
		return err
	}
	*jsonField = JSONB(m)
	return nil
}

// JSONBFromBytes decodes a raw json object, e.g. the stdout of the scanner.
func JSONBFromBytes(data []byte) (JSONB, error) {
	var jsonb JSONB
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&jsonb); err != nil {
		return nil, err
	}
	return jsonb, nil
}

// Dig walks nested objects and returns the string at the end of the path.
func (jsonField JSONB) Dig(path ...string) (string, bool) {
	var current any = map[string]any(jsonField)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return "", false
		}
		current, ok = m[key]
		if !ok {
			return "", false
		}
	}
	s, ok := current.(string)
	return s, ok
}
