package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
)

const DefaultEventsChannel = "task-events"

// Envelope is the message the CRUD backend publishes on the events channel
// after a mutation commits.
type Envelope struct {
	Op     string `json:"op"`
	Task   *Task  `json:"task,omitempty"`
	TaskID string `json:"taskId,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// Ingress subscribes to the redis events channel and feeds the broadcaster,
// so CRUD processes that do not share this process can still publish.
type Ingress struct {
	rdb         *redis.Client
	channel     string
	broadcaster *Broadcaster
}

func NewIngress(rdb *redis.Client, channel string, b *Broadcaster) *Ingress {
	if channel == "" {
		channel = DefaultEventsChannel
	}
	return &Ingress{rdb: rdb, channel: channel, broadcaster: b}
}

// Run consumes the channel until the context is cancelled. A bad envelope
// is dropped and logged; it never stops the subscription.
func (i *Ingress) Run(ctx context.Context) {
	subscriber := i.rdb.Subscribe(ctx, i.channel)
	defer subscriber.Close()

	log.Printf("realtime: subscribed to events channel: %s", i.channel)

	ch := subscriber.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := i.dispatch(msg.Payload); err != nil {
				log.Printf("realtime: dropped event from channel %s: %v", i.channel, err)
			}
		}
	}
}

func (i *Ingress) dispatch(payload string) error {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Op {
	case string(EventTaskCreated):
		if env.Task == nil {
			return fmt.Errorf("%s envelope without task", env.Op)
		}
		i.broadcaster.EmitTaskCreated(*env.Task)

	case string(EventTaskUpdated):
		if env.Task == nil {
			return fmt.Errorf("%s envelope without task", env.Op)
		}
		i.broadcaster.EmitTaskUpdated(*env.Task)

	case string(EventTaskDeleted):
		if env.TaskID == "" || env.UserID == "" {
			return fmt.Errorf("%s envelope without taskId or userId", env.Op)
		}
		i.broadcaster.EmitTaskDeleted(env.TaskID, env.UserID)

	default:
		return fmt.Errorf("unknown op %q", env.Op)
	}
	return nil
}

// Publish is the producer half, used by the CRUD backend after a mutation
// commits. Best-effort relative to the already-committed mutation: callers
// log the returned error and move on.
func Publish(ctx context.Context, rdb *redis.Client, channel string, env Envelope) error {
	if rdb == nil {
		return fmt.Errorf("realtime publish: redis client not initialised")
	}
	if channel == "" {
		channel = DefaultEventsChannel
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("realtime publish: marshal envelope: %w", err)
	}

	if err := rdb.Publish(ctx, channel, string(data)).Err(); err != nil {
		return fmt.Errorf("realtime publish: redis publish: %w", err)
	}
	return nil
}
