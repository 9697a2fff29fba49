// Package config loads pinwall's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/pinwall/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:3000"
//	session_path = "/api/session"
//	logout_path = "/api/logout"
//	pins_path = "/api/pinata"
//	session_cookie = "connect.sid=..."
//	gateways = ["gateway.pinata.cloud", "ipfs.io", "dweb.link", "cloudflare-ipfs.com"]
//	placeholder = "placeholder:unavailable"
//	request_timeout_seconds = 30
//	poll_seconds = 15
//	log_dir = "~/.local/share/pinwall/logs"
//
// Every field is optional. The session cookie may instead come from the
// PINWALL_SESSION_COOKIE environment variable, which takes precedence.
// Tilde expansion is applied to log_dir and the config path.
//
// Gateways are tried in the listed order. Entries are compared after
// trimming, dropping any scheme or path, and lowercasing; two entries naming
// the same host are rejected.
//
// Missing config files are NOT an error; defaults are used instead.
package config
