// Package logging provides the structured logger shared by every webterm
// process.
//
// Two output modes are supported:
//   - Production: JSON lines for log shippers
//   - Development: colored console output
//
// Components receive a *Logger through their constructors and derive named
// children from it:
//
//	log := logging.NewDefault().Named("broker")
//	log.Info("connection accepted", zap.String("session_id", id))
package logging
