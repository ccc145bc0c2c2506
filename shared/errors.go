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
	"errors"

	"github.com/l3montree-dev/imagecatalog/normalize"
)

var (
	ErrIdentifierParse = normalize.ErrIdentifierParse
	ErrScanTimeout     = errors.New("ScanTimeout")
	ErrScanExecution   = errors.New("ScanExecutionFailure")
	ErrScanOutputParse = errors.New("ScanOutputParseFailure")
	ErrPersistence     = errors.New("PersistenceFailure")
	ErrNotFound        = errors.New("NotFound")
	ErrDuplicateSlug   = errors.New("DuplicateSlug")
)

// ScanTimeoutMarker is stored as the sync error of a version whose scan hit the wall-clock limit.
const ScanTimeoutMarker = "ScanTimeout: scanner exceeded the wall-clock limit"

var taxonomy = []error{
	ErrIdentifierParse,
	ErrScanExecution,
	ErrScanOutputParse,
	ErrPersistence,
	ErrNotFound,
	ErrDuplicateSlug,
}

type causedError struct {
	cause error
	err   error
}

func (e causedError) Error() string {
	return e.err.Error()
}

func (e causedError) Unwrap() []error {
	return []error{e.cause, e.err}
}

// WithCause tags err with one of the sentinel causes without changing its message.
func WithCause(cause error, err error) error {
	if err == nil {
		err = cause
	}
	return causedError{cause: cause, err: err}
}

// SyncErrorString renders err as "<cause>: <message>". Timeouts always render as ScanTimeoutMarker.
func SyncErrorString(err error) string {
	if errors.Is(err, ErrScanTimeout) {
		return ScanTimeoutMarker
	}
	for _, cause := range taxonomy {
		if errors.Is(err, cause) {
			return cause.Error() + ": " + err.Error()
		}
	}
	return "UnknownFailure: " + err.Error()
}
