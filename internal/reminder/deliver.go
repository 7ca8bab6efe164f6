package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/redis/go-redis/v9"
)

// Deliverer shows or forwards a reminder that came due.
type Deliverer interface {
	Deliver(ctx context.Context, req Request, at time.Time) error
}

type DeliverFunc func(ctx context.Context, req Request, at time.Time) error

func (f DeliverFunc) Deliver(ctx context.Context, req Request, at time.Time) error {
	return f(ctx, req, at)
}

var (
	bellStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	titleStyle = lipgloss.NewStyle().Bold(true)
	timeStyle  = lipgloss.NewStyle().Faint(true)
)

// Terminal writes one styled line per reminder.
type Terminal struct {
	W io.Writer
}

func (t Terminal) Deliver(_ context.Context, req Request, at time.Time) error {
	_, err := fmt.Fprintf(t.W, "%s %s %s %s\n",
		bellStyle.Render("⏰"),
		timeStyle.Render(at.Format("15:04")),
		titleStyle.Render(req.Title),
		req.Body,
	)
	return err
}

// Fired is the payload published for a delivered reminder.
type Fired struct {
	Identifier string    `json:"identifier"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	FiredAt    time.Time `json:"firedAt"`
}

// Publisher forwards reminders to a redis pub/sub channel.
type Publisher struct {
	client  *redis.Client
	channel string
}

func NewPublisher(ctx context.Context, url, channel string) (*Publisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Publisher{client: client, channel: channel}, nil
}

func (p *Publisher) Deliver(ctx context.Context, req Request, at time.Time) error {
	payload, err := json.Marshal(Fired{
		Identifier: req.Identifier,
		Title:      req.Title,
		Body:       req.Body,
		FiredAt:    at,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

// Multi delivers to every target and joins the errors.
type Multi []Deliverer

func (m Multi) Deliver(ctx context.Context, req Request, at time.Time) error {
	var errs []error
	for _, d := range m {
		if err := d.Deliver(ctx, req, at); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
