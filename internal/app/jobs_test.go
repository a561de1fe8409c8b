package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/secsys/security-service/internal/domain"
)

type recipientRepoStub struct {
	recipients map[domain.RecipientKind][]domain.Recipient
	listErr    error
}

func (s *recipientRepoStub) ListActive(ctx context.Context, kind domain.RecipientKind) ([]domain.Recipient, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.recipients[kind], nil
}

type fetcherStub struct {
	joke     *domain.Joke
	fetchErr error
}

func (s *fetcherStub) FetchRandom(ctx context.Context) (*domain.Joke, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.joke, nil
}

type publishedEvent struct {
	exchange   string
	routingKey string
	body       interface{}
}

type producerStub struct {
	events     []publishedEvent
	publishErr error
}

func (s *producerStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.events = append(s.events, publishedEvent{exchange: exchange, routingKey: routingKey, body: body})
	return nil
}

func newTestJobs(recipients RecipientRepository, fetcher JokeFetcher, producer Publisher) *Jobs {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewJobs(recipients, fetcher, producer, logger)
}

func TestDispatchEmails(t *testing.T) {
	joke := &domain.Joke{Text: "Why did the gopher cross the road?", Category: "Programming"}

	t.Run("publishes one event per active recipient", func(t *testing.T) {
		repo := &recipientRepoStub{recipients: map[domain.RecipientKind][]domain.Recipient{
			domain.EmailRecipientKind: {
				{ID: "1", Name: "Ann", Address: "ann@example.com"},
				{ID: "2", Name: "Bob", Address: "bob@example.com"},
			},
		}}
		producer := &producerStub{}

		sent, err := newTestJobs(repo, &fetcherStub{joke: joke}, producer).DispatchEmails(context.Background())
		if err != nil {
			t.Fatalf("DispatchEmails returned error: %v", err)
		}
		if sent != 2 {
			t.Fatalf("sent = %d, want 2", sent)
		}
		if len(producer.events) != 2 {
			t.Fatalf("published %d events, want 2", len(producer.events))
		}
		first := producer.events[0]
		if first.exchange != JokeExchange || first.routingKey != JokeEmailRoutingKey {
			t.Fatalf("event routed to %s/%s", first.exchange, first.routingKey)
		}
		event, ok := first.body.(domain.JokeEmailEvent)
		if !ok {
			t.Fatalf("event body type %T", first.body)
		}
		if event.Email != "ann@example.com" {
			t.Fatalf("event email = %q", event.Email)
		}
		if !strings.Contains(event.Body, joke.Text) {
			t.Fatal("digest does not contain the joke text")
		}
		if !strings.Contains(event.Body, "Atbash Cipher:") || !strings.Contains(event.Body, "Vigenere Cipher (key=JOKE):") {
			t.Fatal("digest is missing encrypted variants")
		}
	})

	t.Run("no recipients publishes nothing", func(t *testing.T) {
		producer := &producerStub{}
		sent, err := newTestJobs(&recipientRepoStub{}, &fetcherStub{joke: joke}, producer).DispatchEmails(context.Background())
		if err != nil {
			t.Fatalf("DispatchEmails returned error: %v", err)
		}
		if sent != 0 || len(producer.events) != 0 {
			t.Fatalf("sent = %d, events = %d, want 0/0", sent, len(producer.events))
		}
	})

	t.Run("fetch failure aborts the round", func(t *testing.T) {
		producer := &producerStub{}
		_, err := newTestJobs(&recipientRepoStub{}, &fetcherStub{fetchErr: errors.New("api down")}, producer).DispatchEmails(context.Background())
		if err == nil {
			t.Fatal("expected error when joke fetch fails")
		}
		if len(producer.events) != 0 {
			t.Fatal("no events should be published on fetch failure")
		}
	})
}

func TestDispatchSMS(t *testing.T) {
	t.Run("truncates the body to one SMS segment", func(t *testing.T) {
		long := strings.Repeat("ha ", 100)
		repo := &recipientRepoStub{recipients: map[domain.RecipientKind][]domain.Recipient{
			domain.SMSRecipientKind: {{ID: "1", Name: "Ann", Address: "+15550001111"}},
		}}
		producer := &producerStub{}

		sent, err := newTestJobs(repo, &fetcherStub{joke: &domain.Joke{Text: long, Category: "Misc"}}, producer).DispatchSMS(context.Background())
		if err != nil {
			t.Fatalf("DispatchSMS returned error: %v", err)
		}
		if sent != 1 {
			t.Fatalf("sent = %d, want 1", sent)
		}
		event := producer.events[0].body.(domain.JokeSMSEvent)
		if len(event.Body) != 160 {
			t.Fatalf("SMS body length = %d, want 160", len(event.Body))
		}
		if producer.events[0].routingKey != JokeSMSRoutingKey {
			t.Fatalf("routing key = %q", producer.events[0].routingKey)
		}
	})

	t.Run("publish failures are skipped, not fatal", func(t *testing.T) {
		repo := &recipientRepoStub{recipients: map[domain.RecipientKind][]domain.Recipient{
			domain.SMSRecipientKind: {{ID: "1", Name: "Ann", Address: "+15550001111"}},
		}}
		producer := &producerStub{publishErr: errors.New("broker gone")}

		sent, err := newTestJobs(repo, &fetcherStub{joke: &domain.Joke{Text: "short", Category: "Misc"}}, producer).DispatchSMS(context.Background())
		if err != nil {
			t.Fatalf("DispatchSMS returned error: %v", err)
		}
		if sent != 0 {
			t.Fatalf("sent = %d, want 0", sent)
		}
	})
}
