package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// TrainsPubSub broadcasts "train changed" notifications so every instance
// can drop its cached view of the train.
type TrainsPubSub struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time
}

func NewTrainsPubSub(rdb *redis.Client) *TrainsPubSub {
	return &TrainsPubSub{
		rdb:     rdb,
		channel: ChannelTrainsChanged(),
		now:     time.Now,
	}
}

type trainChangedMsg struct {
	Type    string `json:"type"`
	TrainID int64  `json:"train_id"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *TrainsPubSub) PublishTrainChanged(ctx context.Context, trainID int64) error {
	if p == nil || p.rdb == nil {
		return nil
	}

	b, err := encodeTrainChanged(trainID, p.now())
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe blocks until ctx is done, calling handler for every well-formed
// notification.
func (p *TrainsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, trainID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			if id, ok := decodeTrainChanged(m.Payload); ok {
				handler(ctx, id)
			}
		}
	}
}

func encodeTrainChanged(trainID int64, at time.Time) ([]byte, error) {
	return json.Marshal(trainChangedMsg{
		Type:    "train_changed",
		TrainID: trainID,
		TsUnix:  at.Unix(),
	})
}

func decodeTrainChanged(payload string) (int64, bool) {
	var msg trainChangedMsg
	if err := json.Unmarshal([]byte(payload), &msg); err != nil || msg.TrainID == 0 {
		return 0, false
	}
	return msg.TrainID, true
}
