// Package config loads the ts3view TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/ts3view/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or empty, use defaults
//
// # Default Values
//
//   - Transport: raw (TCP ServerQuery)
//   - Server: 127.0.0.1, query port 10011, WebQuery port 10080,
//     virtual server port 9987
//   - Query nickname: ts3view
//   - Socket timeout: 2s
//   - Poll interval: 10s
//   - Log file: ~/.local/share/ts3view/ts3view.log
//
// # TOML Format
//
//	log_file = "~/.local/share/ts3view/ts3view.log"
//
//	[server]
//	transport = "raw"           # or "http" for WebQuery
//	host = "voice.example.org"
//	query_port = 10011
//	webquery_port = 10080
//	api_key = ""                # required when transport = "http"
//	virtual_port = 9987
//	username = "serveradmin"
//	password = "secret"
//	nickname = "ts3view"
//	timeout_seconds = 2
//
//	[viewer]
//	hide_empty_channels = false
//	hide_parent_channels = false
//	limit_to_channels = [1, 4]
//	poll_seconds = 10
//
// Every field is optional. Setting nickname to "" keeps the name the server
// assigns to the query client. Leaving username empty skips login, which
// only works when the guest query group may list channels and clients.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, TOML parse errors, invalid ports, an unknown transport and
// an http transport without api_key. A missing file is not an error.
package config
