// Package notifications publishes moderation events over Redis pub/sub so
// that connected dashboards and reporters learn about report changes.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"campusforum/internal/models"

	"github.com/redis/go-redis/v9"
)

// ModerationChannel carries every report event for moderators.
const ModerationChannel = "notifications:moderation"

// Event types.
const (
	EventReportFiled   = "report.filed"
	EventReportUpdated = "report.updated"
)

// Event is the JSON payload published for a report change.
type Event struct {
	Type       string              `json:"type"`
	ReportID   uint                `json:"report_id"`
	ReportType models.ReportType   `json:"report_type"`
	Status     models.ReportStatus `json:"status"`
	ReporterID uint                `json:"reporter_id"`
	ReviewerID *uint               `json:"reviewer_id,omitempty"`
	At         time.Time           `json:"at"`
}

// Notifier provides helpers to publish notifications into Redis channels.
// A nil client turns every publish into a no-op.
type Notifier struct {
	rdb *redis.Client
	now func() time.Time
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, now: time.Now}
}

// ReportFiled tells moderators about a new report.
func (n *Notifier) ReportFiled(ctx context.Context, r *models.Report) error {
	return n.publish(ctx, n.event(EventReportFiled, r), ModerationChannel)
}

// ReportUpdated tells moderators and the reporter that a report moved to a
// new status.
func (n *Notifier) ReportUpdated(ctx context.Context, r *models.Report) error {
	return n.publish(ctx, n.event(EventReportUpdated, r), ModerationChannel, UserChannel(r.ReporterID))
}

func (n *Notifier) event(kind string, r *models.Report) Event {
	return Event{
		Type:       kind,
		ReportID:   r.ID,
		ReportType: r.Type,
		Status:     r.Status,
		ReporterID: r.ReporterID,
		ReviewerID: r.ReviewerID,
		At:         n.now().UTC(),
	}
}

func (n *Notifier) publish(ctx context.Context, ev Event, channels ...string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pipe := n.rdb.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, payload)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// StartSubscriber subscribes to the moderation channel and every user
// channel and calls onMessage for each incoming message until ctx ends.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel string, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:user:*", ModerationChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("panic in notification subscriber",
								"panic", fmt.Sprint(r), "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}
