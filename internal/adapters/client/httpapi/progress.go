package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/refcheck-dev/refcheck/internal/domain"
	"github.com/refcheck-dev/refcheck/internal/ports"
	"github.com/sirupsen/logrus"
)

const defaultPollInterval = 2 * time.Second

// PollSource implements the progress feed by polling the backend's
// event endpoint with a cursor. Status strings are passed through
// as-is; the router owns rejection of unrecognized values.
type PollSource struct {
	client   *Client
	interval time.Duration
	log      logrus.FieldLogger
}

var _ ports.ProgressSource = (*PollSource)(nil)

func NewPollSource(client *Client, interval time.Duration, log logrus.FieldLogger) *PollSource {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &PollSource{client: client, interval: interval, log: log}
}

type eventPayload struct {
	SessionID       string          `json:"session_id"`
	CheckID         string          `json:"check_id,omitempty"`
	Status          string          `json:"status"`
	TotalRefs       int             `json:"total_refs"`
	ErrorsCount     int             `json:"errors_count"`
	WarningsCount   int             `json:"warnings_count"`
	UnverifiedCount int             `json:"unverified_count"`
	ResultsDelta    []resultPayload `json:"results_delta,omitempty"`
}

type eventsResponse struct {
	Cursor int64          `json:"cursor"`
	Events []eventPayload `json:"events"`
}

// Subscribe starts a polling loop and returns the event channel. The
// channel closes when ctx is done. Poll failures are logged and the
// last-known cursor is retried on the next tick.
func (s *PollSource) Subscribe(ctx context.Context) (<-chan domain.ProgressEvent, error) {
	events := make(chan domain.ProgressEvent)

	go func() {
		defer close(events)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		var cursor int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			next, batch, err := s.fetch(ctx, cursor)
			if err != nil {
				s.log.Debugf("poll progress events: %v", err)
				continue
			}
			cursor = next

			for _, event := range batch {
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

func (s *PollSource) fetch(ctx context.Context, cursor int64) (int64, []domain.ProgressEvent, error) {
	var response eventsResponse
	path := "/events?cursor=" + strconv.FormatInt(cursor, 10)
	if err := s.client.doJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return cursor, nil, fmt.Errorf("fetch events: %w", err)
	}

	events := make([]domain.ProgressEvent, 0, len(response.Events))
	for _, payload := range response.Events {
		events = append(events, fromEventPayload(payload))
	}

	return response.Cursor, events, nil
}

func fromEventPayload(payload eventPayload) domain.ProgressEvent {
	delta := make([]domain.Result, 0, len(payload.ResultsDelta))
	for _, result := range payload.ResultsDelta {
		delta = append(delta, domain.Result{
			Reference: result.Reference,
			Verdict:   domain.Verdict(result.Verdict),
			Detail:    result.Detail,
		})
	}
	if len(delta) == 0 {
		delta = nil
	}

	return domain.ProgressEvent{
		SessionID:       domain.SessionID(payload.SessionID),
		CheckID:         domain.CheckID(payload.CheckID),
		Status:          domain.Status(payload.Status),
		TotalRefs:       payload.TotalRefs,
		ErrorsCount:     payload.ErrorsCount,
		WarningsCount:   payload.WarningsCount,
		UnverifiedCount: payload.UnverifiedCount,
		ResultsDelta:    delta,
	}
}
