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

package database

import (
	"context"
	"log/slog"
	"sync"

	"github.com/l3montree-dev/imagecatalog/shared"
)

// InMemoryBroker delivers messages inside one process. It is used when no postgres pool is available.
type InMemoryBroker struct {
	mu          sync.RWMutex
	subscribers map[shared.PubSubChannel][]chan map[string]any
}

func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{subscribers: make(map[shared.PubSubChannel][]chan map[string]any)}
}

func (b *InMemoryBroker) Publish(_ context.Context, message shared.PubSubMessage) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers[message.GetChannel()] {
		select {
		case sub <- message.GetPayload():
		default:
			slog.Warn("subscriber channel full, dropping message", "topic", message.GetChannel())
		}
	}
	return nil
}

func (b *InMemoryBroker) Subscribe(topic shared.PubSubChannel) (<-chan map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan map[string]any, 100)
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch, nil
}
