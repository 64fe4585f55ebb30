// Package transport carries statkeeper intents to the relay and committed
// events back, as JSON envelopes over websocket text frames.
//
// Client is the device side: it implements engine.Transport and hands
// everything it reads to a Sink (normally an engine.Session). Hub is the
// relay: it owns sequencing for online games, persists through the store and
// fans results out to every connection on the game. It also serves read-only
// HTTP views of a point's reconciled timeline and legal actions.
package transport
