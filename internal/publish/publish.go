// Package publish fans out stabilized gestures and fired actions to external
// subscribers.
package publish

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyburd/redigo/redis"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/action"
	"github.com/ayusman/touchless/internal/gesture"
)

// Event is one published notification.
type Event struct {
	SessionID string         `json:"session_id"`
	Gesture   gesture.Label  `json:"gesture"`
	Display   string         `json:"display"`
	Action    *action.Action `json:"action,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent builds the event for a stabilized label and the action it fired, if any.
func NewEvent(sessionID string, label gesture.Label, a *action.Action, ts time.Time) Event {
	return Event{
		SessionID: sessionID,
		Gesture:   label,
		Display:   label.DisplayName(),
		Action:    a,
		Timestamp: ts,
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(Event) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

// RedisPublisher PUBLISHes JSON events on a Redis channel.
type RedisPublisher struct {
	pool    *redis.Pool
	channel string
}

// NewRedisPublisher creates a publisher backed by a connection pool to addr.
func NewRedisPublisher(addr, channel string, maxIdle int) *RedisPublisher {
	pool := redis.NewPool(func() (redis.Conn, error) {
		return redis.Dial("tcp", addr)
	}, maxIdle)
	return NewRedisPublisherWithPool(pool, channel)
}

// NewRedisPublisherWithPool creates a publisher on an existing pool.
func NewRedisPublisherWithPool(pool *redis.Pool, channel string) *RedisPublisher {
	return &RedisPublisher{pool: pool, channel: channel}
}

// Channel returns the channel events are published on.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Publish sends e to the channel and returns the number of receivers reached.
func (p *RedisPublisher) Publish(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	conn := p.pool.Get()
	defer conn.Close()

	receivers, err := redis.Int(conn.Do("PUBLISH", p.channel, data))
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}

	log.WithFields(log.Fields{
		"channel":   p.channel,
		"gesture":   e.Gesture.String(),
		"receivers": receivers,
	}).Debug("Published gesture event")
	return nil
}

// Close releases the pool.
func (p *RedisPublisher) Close() error {
	return p.pool.Close()
}
