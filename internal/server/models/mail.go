package models

import "time"

// Mail is one delivered message. ID is a UUIDv7 string, so IDs of one
// process sort in arrival order.
type Mail struct {
	ID             string
	Recipient      string
	Sender         string
	SenderEndpoint string
	CreatedAt      time.Time
	Title          string
	Body           string
}

// MailSummary is a mailbox listing row. Bodies are not listed.
type MailSummary struct {
	ID        string
	Sender    string
	Title     string
	CreatedAt time.Time
}
