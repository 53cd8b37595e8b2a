package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rookery-club/rookery/internal/model"
	"github.com/rookery-club/rookery/internal/store"
)

const (
	tickInterval   = time.Minute
	reminderWindow = 2 * time.Hour
)

// Scheduler periodically looks for events starting soon and reminds families
// with someone marked attending. Each subscription is notified at most once
// per event, recorded through the sent_reminders table.
type Scheduler struct {
	service    *Service
	push       *store.PushStore
	events     *store.EventStore
	attendance *store.AttendanceStore
	logger     *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(svc *Service, ps *store.PushStore, es *store.EventStore, as *store.AttendanceStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:    svc,
		push:       ps,
		events:     es,
		attendance: as,
		logger:     logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.tick(); err != nil {
					s.logger.Error("reminder tick", "error", err)
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

func (s *Scheduler) tick() error {
	events, err := s.events.ListStartingWithin(reminderWindow)
	if err != nil {
		return fmt.Errorf("list upcoming events: %w", err)
	}

	for _, event := range events {
		if err := s.remindForEvent(event); err != nil {
			s.logger.Error("remind for event", "event_id", event.ID, "error", err)
		}
	}
	return nil
}

func (s *Scheduler) remindForEvent(event model.Event) error {
	userIDs, err := s.attendance.ListAttendingUserIDs(event.ID)
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	subs, err := s.push.ListForUsers(userIDs)
	if err != nil {
		return err
	}

	payload := Payload{
		Title: event.Name,
		Body:  fmt.Sprintf("Starts at %s", event.StartsAt.Local().Format("3:04 PM")),
		URL:   "/calendar",
	}

	for i := range subs {
		sub := &subs[i]

		fresh, err := s.push.MarkReminderSent(sub.ID, event.ID)
		if err != nil {
			s.logger.Error("mark reminder", "subscription_id", sub.ID, "error", err)
			continue
		}
		if !fresh {
			continue
		}

		if err := s.service.Send(sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if delErr := s.push.Delete(sub.ID); delErr != nil {
					s.logger.Error("delete expired subscription", "subscription_id", sub.ID, "error", delErr)
				}
				continue
			}
			s.logger.Error("send reminder", "subscription_id", sub.ID, "error", err)
		}
	}
	return nil
}
