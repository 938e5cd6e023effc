// Package client is a programmatic postbox client over UDP.
//
// One socket carries both command replies and unsolicited NEW_MAIL pushes,
// so a read loop demultiplexes them: pushes go to Notifications, everything
// else answers the pending Do call. Commands are serialised per client.
//
// Replies are not correlated with requests at the protocol level; a reply
// that arrives after its Do call gave up is discarded before the next
// command is sent.
package client
