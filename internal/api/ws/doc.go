// Package ws is the connection broker: the WebSocket endpoint terminal
// clients talk to.
//
// A client authenticates with a token on the upgrade request (Authorization
// header or ?token=) or with a first {"type":"auth","token":...} frame. It
// then sends {"type":"command","command":"ls"} and {"type":"ping"} frames.
// Each command takes one token from the session's bucket and is queued for
// the connection's worker, which forwards it to the executor and writes back
//
//	{"type":"output","output":"...","error":null}
//
// followed by {"type":"clear"} when the command cleared the screen.
//
// The broker never touches files itself. When the last connection of a
// session closes, the session's bucket is released and the executor is
// told to drop its in-memory session state.
package ws
