// Package services contains the server-side business logic behind the
// datagram commands: account credentials and per-recipient mailboxes.
//
// Storage failures are logged here and surfaced as common sentinels; the
// caller never sees driver errors.
package services
