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
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/l3montree-dev/imagecatalog/monitoring"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/lib/pq"
)

type notification struct {
	ID        string         `json:"id"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
	SenderID  string         `json:"senderId,omitempty"`
}

// PostgreSQLBroker fans NOTIFY payloads out to in-process subscribers. Every channel holds one
// dedicated pool connection in LISTEN mode.
type PostgreSQLBroker struct {
	pool        *pgxpool.Pool
	mu          sync.RWMutex
	subscribers map[shared.PubSubChannel][]chan map[string]any
	conns       map[shared.PubSubChannel]*pgxpool.Conn
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	ID          string
}

func NewPostgreSQLBroker(pool *pgxpool.Pool) *PostgreSQLBroker {
	ctx, cancel := context.WithCancel(context.Background())
	return &PostgreSQLBroker{
		pool:        pool,
		subscribers: make(map[shared.PubSubChannel][]chan map[string]any),
		conns:       make(map[shared.PubSubChannel]*pgxpool.Conn),
		ctx:         ctx,
		cancel:      cancel,
		ID:          uuid.New().String(),
	}
}

func (b *PostgreSQLBroker) Publish(ctx context.Context, message shared.PubSubMessage) error {
	body, err := json.Marshal(notification{
		ID:        uuid.New().String(),
		Payload:   message.GetPayload(),
		Timestamp: time.Now(),
		SenderID:  b.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	// pg_notify takes the payload as a bound parameter, no quoting needed
	if _, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", string(message.GetChannel()), string(body)); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

func (b *PostgreSQLBroker) Subscribe(topic shared.PubSubChannel) (<-chan map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan map[string]any, 100)
	if _, listening := b.conns[topic]; !listening {
		ctx, cancel := context.WithTimeout(b.ctx, 30*time.Second)
		defer cancel()
		conn, err := b.pool.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire connection for listening: %w", err)
		}
		if _, err := conn.Exec(ctx, "LISTEN "+pq.QuoteIdentifier(string(topic))); err != nil {
			conn.Release()
			return nil, fmt.Errorf("failed to listen on topic %s: %w", topic, err)
		}
		b.conns[topic] = conn
		b.wg.Go(func() {
			b.listen(topic, conn)
		})
	}
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch, nil
}

func (b *PostgreSQLBroker) listen(topic shared.PubSubChannel, conn *pgxpool.Conn) {
	defer conn.Release()
	for {
		n, err := conn.Conn().WaitForNotification(b.ctx)
		if err != nil {
			if b.ctx.Err() == nil {
				monitoring.Alert("could not listen for notifications", err)
			}
			return
		}

		var msg notification
		if err := json.Unmarshal([]byte(n.Payload), &msg); err != nil {
			slog.Error("failed to unmarshal notification", "err", err, "payload", n.Payload)
			continue
		}

		b.mu.RLock()
		for _, sub := range b.subscribers[topic] {
			select {
			case sub <- msg.Payload:
			default:
				slog.Warn("subscriber channel full, dropping notification", "topic", topic, "id", msg.ID)
			}
		}
		b.mu.RUnlock()
	}
}

// Close stops all listeners and releases their connections.
func (b *PostgreSQLBroker) Close() {
	b.cancel()
	b.wg.Wait()
}
