package domain

// JokeEmailEvent is published to RabbitMQ for every active email recipient
// when a joke digest is dispatched. A downstream mailer consumes it.
type JokeEmailEvent struct {
	RecipientID   string `json:"recipient_id"`
	RecipientName string `json:"recipient_name"`
	Email         string `json:"email"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

// JokeSMSEvent is published for every active SMS recipient. Body is already
// truncated to a single SMS segment.
type JokeSMSEvent struct {
	RecipientID   string `json:"recipient_id"`
	RecipientName string `json:"recipient_name"`
	PhoneNumber   string `json:"phone_number"`
	Body          string `json:"body"`
}
