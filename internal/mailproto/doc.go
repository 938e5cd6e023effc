// Package mailproto implements the postbox datagram grammar: parsing inbound
// command lines and rendering responses and NEW_MAIL notifications.
//
// A command is one UTF-8 datagram of the form
//
//	<VERB> <arguments>
//
// where VERB is matched case-insensitively. Responses start with "OK" or
// "ERROR"; pushes start with "NEW_MAIL|".
package mailproto
