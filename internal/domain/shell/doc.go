// Package shell interprets terminal command lines for webterm sessions.
//
// A line is scanned for one unquoted > or >> redirection, tokenized on
// whitespace outside quotes and dispatched through a fixed table of
// builtins. Each session keeps its working directory and history; commands
// of one session run one at a time under the session's lock.
//
// Failures never escape as Go errors. User mistakes come back as
// Result.Error text, while store failures and handler panics are logged and
// reported as "Internal server error".
package shell
