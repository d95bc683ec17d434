package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayOutbox = 1024

type relayEnvelope struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// RedisRelay extends a local Registry across nodes. Broadcasts are delivered
// locally first and then published; frames published by other nodes are
// delivered to local members only. Publishing happens on a background
// goroutine so Broadcast never waits on the network.
type RedisRelay struct {
	*Registry

	client  *redis.Client
	channel string
	node    string
	outbox  chan relayEnvelope
}

func NewRedisRelay(registry *Registry, client *redis.Client, channel string) *RedisRelay {
	return &RedisRelay{
		Registry: registry,
		client:   client,
		channel:  channel,
		node:     uuid.NewString(),
		outbox:   make(chan relayEnvelope, relayOutbox),
	}
}

// Node identifies this process on the channel.
func (r *RedisRelay) Node() string { return r.node }

func (r *RedisRelay) Broadcast(room string, f Frame, exclude ...*Session) int {
	n := r.Registry.Broadcast(room, f, exclude...)
	select {
	case r.outbox <- relayEnvelope{Origin: r.node, Room: room, Event: f.Event, Data: f.Data}:
	default:
		log.Printf("[relay][publish] outbox full, room=%s event=%q not relayed", room, f.Event)
	}
	return n
}

// Run subscribes to the channel and pumps the outbox until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	// Receive blocks until the subscription is confirmed.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	log.Printf("[relay] node=%s subscribed to %s", r.node, r.channel)

	go r.publishLoop(ctx)

	inbound := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			r.deliver(msg.Payload)
		}
	}
}

func (r *RedisRelay) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-r.outbox:
			payload, err := json.Marshal(env)
			if err != nil {
				log.Printf("[relay][publish] encode: %v", err)
				continue
			}
			if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
				log.Printf("[relay][publish] room=%s: %v", env.Room, err)
			}
		}
	}
}

// deliver hands a remote frame to local members and reports whether it was
// accepted. Frames this node published itself are skipped.
func (r *RedisRelay) deliver(payload string) bool {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Printf("[relay][receive] undecodable payload: %v", err)
		return false
	}
	if env.Origin == r.node || env.Room == "" {
		return false
	}
	r.Registry.Broadcast(env.Room, Frame{Event: env.Event, Data: env.Data})
	return true
}
