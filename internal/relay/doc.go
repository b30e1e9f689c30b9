// Package relay carries terminal commands between the broker and the
// interpreter when they run as separate processes.
//
// Relay is a plain publish/subscribe transport with two implementations:
// Memory for a single process and Redis for a deployment. Client and Server
// add explicit correlation on top. Every request carries a request ID and
// the name of the client's private reply channel; the client waits on a
// single-shot channel for that ID and gives up after its timeout. Late and
// duplicate responses find no waiter and are dropped.
//
// Wire format is JSON (sonic); inbound requests are validated before they
// reach the interpreter.
package relay
