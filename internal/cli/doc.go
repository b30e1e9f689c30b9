// Package cli implements the webterm command line: serve, broker and
// interpreter start the servers, token issues test credentials.
package cli
