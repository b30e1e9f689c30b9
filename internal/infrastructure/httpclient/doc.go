// Package httpclient is the outbound JSON client shared by the remote
// token verifier and the remote command executor. It layers resty over a
// go-retryablehttp transport and guards each peer with its own circuit
// breaker.
package httpclient
