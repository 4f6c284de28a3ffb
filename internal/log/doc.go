// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The dashboard backend authenticates with a session cookie and identifies
// upload jobs by session id, and both end up in request logs. The
// SecureHandler masks them:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-CSRF-Token)
//   - Session identifiers (session, session_id, sid)
//   - Values that look like tokens, signed cookies or URLs with credentials,
//     such as an RTSP camera address with a password
//
// Even in verbose mode, sensitive values are masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("upload accepted",
//	    "session_id", sid,            // masked
//	    "endpoint", "/feature3/upload_images",
//	)
package log
