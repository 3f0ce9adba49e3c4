// Package http is the REST transport of the remote sync service.
//
// Routes:
//
//	POST /api/user/register  create an account, token in the Authorization header
//	POST /api/user/login     issue a token for existing credentials
//	GET  /api/version        server version as plain text
//	POST /api/sync/push      apply a batch of changes (bearer token, optional HMAC)
//	POST /api/sync/pull      read one page of a table after a cursor (bearer token)
//	GET  /api/sync/schema    schema version and fingerprint (bearer token)
//
// Error bodies are the plain-text messages of the app package; clients map
// them back to their own errors.
package http
