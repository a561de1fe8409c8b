/**
 * @description
 * Scheduled job implementations: fetch a joke, build the digest with its
 * encrypted variants, and publish one event per active recipient.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/secsys/security-service/internal/cipher"
	"github.com/secsys/security-service/internal/domain"
)

// Exchange and routing keys for joke dispatch events.
const (
	JokeExchange        = "joke_events"
	JokeEmailRoutingKey = "joke.email"
	JokeSMSRoutingKey   = "joke.sms"
)

// smsBodyLimit is a single SMS segment.
const smsBodyLimit = 160

// RecipientRepository defines database operations needed by the jobs.
type RecipientRepository interface {
	ListActive(ctx context.Context, kind domain.RecipientKind) ([]domain.Recipient, error)
}

// JokeFetcher defines the interface for fetching a random joke.
type JokeFetcher interface {
	FetchRandom(ctx context.Context) (*domain.Joke, error)
}

// Publisher defines the interface for publishing dispatch events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	recipients RecipientRepository
	fetcher    JokeFetcher
	producer   Publisher
	logger     *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(recipients RecipientRepository, fetcher JokeFetcher, producer Publisher, logger *slog.Logger) *Jobs {
	return &Jobs{
		recipients: recipients,
		fetcher:    fetcher,
		producer:   producer,
		logger:     logger,
	}
}

// SendJokeEmails fetches a joke and publishes an email event for every
// active email recipient.
func (j *Jobs) SendJokeEmails() {
	j.logger.Info("starting joke email dispatch job")
	ctx := context.Background()

	count, err := j.DispatchEmails(ctx)
	if err != nil {
		j.logger.Error("joke email dispatch failed", "error", err)
		return
	}
	j.logger.Info("joke email dispatch finished", "recipients", count)
}

// SendJokeSMS fetches a joke and publishes an SMS event for every active
// SMS recipient.
func (j *Jobs) SendJokeSMS() {
	j.logger.Info("starting joke SMS dispatch job")
	ctx := context.Background()

	count, err := j.DispatchSMS(ctx)
	if err != nil {
		j.logger.Error("joke SMS dispatch failed", "error", err)
		return
	}
	j.logger.Info("joke SMS dispatch finished", "recipients", count)
}

// DispatchEmails runs one email dispatch round and returns how many
// recipients were addressed. Also used by the manual trigger endpoint.
func (j *Jobs) DispatchEmails(ctx context.Context) (int, error) {
	joke, err := j.fetcher.FetchRandom(ctx)
	if err != nil {
		return 0, err
	}

	recipients, err := j.recipients.ListActive(ctx, domain.EmailRecipientKind)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		j.logger.Info("no active email recipients")
		return 0, nil
	}

	body := BuildJokeDigest(joke)
	sent := 0
	for _, recipient := range recipients {
		event := domain.JokeEmailEvent{
			RecipientID:   recipient.ID,
			RecipientName: recipient.Name,
			Email:         recipient.Address,
			Subject:       "Your Daily Joke - Security System",
			Body:          body,
		}
		if err := j.producer.Publish(ctx, JokeExchange, JokeEmailRoutingKey, event); err != nil {
			j.logger.Error("failed to publish joke email event", "recipient", recipient.Address, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// DispatchSMS runs one SMS dispatch round and returns how many recipients
// were addressed.
func (j *Jobs) DispatchSMS(ctx context.Context) (int, error) {
	joke, err := j.fetcher.FetchRandom(ctx)
	if err != nil {
		return 0, err
	}

	recipients, err := j.recipients.ListActive(ctx, domain.SMSRecipientKind)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		j.logger.Info("no active SMS recipients")
		return 0, nil
	}

	body := joke.Text
	if len(body) > smsBodyLimit {
		body = body[:smsBodyLimit]
	}

	sent := 0
	for _, recipient := range recipients {
		event := domain.JokeSMSEvent{
			RecipientID:   recipient.ID,
			RecipientName: recipient.Name,
			PhoneNumber:   recipient.Address,
			Body:          body,
		}
		if err := j.producer.Publish(ctx, JokeExchange, JokeSMSRoutingKey, event); err != nil {
			j.logger.Error("failed to publish joke SMS event", "recipient", recipient.Address, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// BuildJokeDigest renders the email body: the joke followed by its three
// encrypted variants.
func BuildJokeDigest(joke *domain.Joke) string {
	atbash := cipher.AtbashCipher(joke.Text)
	caesar := cipher.CaesarCipher(joke.Text, 3, cipher.Encrypt)
	vigenere := cipher.VigenereCipher(joke.Text, "JOKE", cipher.Encrypt)

	return fmt.Sprintf(`Daily Joke from Security System!

Original Joke:
%s

===== Encrypted Versions =====

Atbash Cipher:
%s

Caesar Cipher (shift=3):
%s

Vigenere Cipher (key=JOKE):
%s

Category: %s

Have a great day!
`, joke.Text, atbash, caesar, vigenere, joke.Category)
}
