// Package http exposes the command interpreter over HTTP and provides the
// matching client, Executor, that the broker uses when the interpreter runs
// as a separate service.
//
// Routes:
//
//	POST   /api/cli/execute       run one command line
//	GET    /api/cli/session/:id   session snapshot
//	DELETE /api/cli/session/:id   drop session state
//	POST   /api/fs/init           create a user's home folders
//	GET    /api/fs/list           list a folder
//	GET    /api/fs/read           read a file
//	GET    /api/fs/exists         check a folder path
//	GET    /api/health
package http
