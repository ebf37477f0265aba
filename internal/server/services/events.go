package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/logging"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/abswdsmn/conference-organiser/internal/server/store"
)

// Accepted date inputs, as sent by datetime-local and date fields.
var eventDateLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"}

var errInvalidDate = errors.New("This value is not a valid datetime.")

// EventForm carries the raw form values; every field may be empty.
type EventForm struct {
	Title       string
	Description string
	Date        string
	Address     string
	Postcode    string
}

// EventFormOf fills a form from an existing event.
func EventFormOf(e *models.Event) EventForm {
	f := EventForm{Title: e.Title, Description: e.Description, Address: e.Address, Postcode: e.Postcode}
	if e.Date != nil {
		f.Date = e.Date.Format(eventDateLayouts[0])
	}
	return f
}

type EventService struct {
	gateways GatewayFactory
	log      logging.Logger
}

func NewEventService(gateways GatewayFactory, log logging.Logger) *EventService {
	return &EventService{gateways: gateways, log: log.With("module", "events")}
}

func (s *EventService) CreateEvent(ctx context.Context, form EventForm) (*models.Event, error) {
	event := &models.Event{}
	if err := applyEventForm(event, form); err != nil {
		return nil, err
	}

	gw := s.gateways()
	if err := gw.Persist(event); err != nil {
		return nil, err
	}
	if err := gw.Flush(ctx); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "event created", "event_id", event.ID)
	return event, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, id string, form EventForm) (*models.Event, error) {
	gw := s.gateways()
	event, err := findEvent(ctx, gw, id)
	if err != nil {
		return nil, err
	}
	if err := applyEventForm(event, form); err != nil {
		return nil, err
	}

	if err := gw.Persist(event); err != nil {
		return nil, err
	}
	if err := gw.Flush(ctx); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "event updated", "event_id", event.ID)
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return findEvent(ctx, s.gateways(), id)
}

func (s *EventService) ListEvents(ctx context.Context) ([]*models.Event, error) {
	return s.gateways().ListEvents(ctx)
}

func applyEventForm(e *models.Event, form EventForm) error {
	date, err := parseEventDate(strings.TrimSpace(form.Date))
	if err != nil {
		return FieldErrors{"date": err.Error()}
	}
	e.Title = strings.TrimSpace(form.Title)
	e.Description = form.Description
	e.Date = date
	e.Address = strings.TrimSpace(form.Address)
	e.Postcode = strings.TrimSpace(form.Postcode)
	return nil
}

func parseEventDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, errInvalidDate
}

func findEvent(ctx context.Context, gw Gateway, id string) (*models.Event, error) {
	rec, err := gw.FindByID(ctx, store.KindEvent, id)
	if err != nil {
		return nil, err
	}
	event, ok := rec.(*models.Event)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected record %T", common.ErrorInternal, rec)
	}
	return event, nil
}
