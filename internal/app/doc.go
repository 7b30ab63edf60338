// Package app wires configuration, the render pipeline, polling and the UI
// into the ts3view application.
//
// # Startup
//
//  1. Load ~/.config/ts3view/config.toml (or the -config path)
//  2. Load UI preferences, falling back to defaults on any problem
//  3. Open the log file; render failures are recorded there
//  4. Build the status source: a ServerQuery session per fetch, or a replay
//     file when -replay is given
//  5. Either print the tree once (plain mode) or start the poller and the TUI
//
// # Polling
//
//	┌─────────────────────────────────────────┐
//	│ Poller goroutine                        │
//	│  ├─> Renderer.Render()                  │
//	│  ├─> store.Update(result)               │
//	│  └─> wait interval, or backoff on error │
//	│      (or until Refresh / replay write)  │
//	└─────────────────────────────────────────┘
//
// Failed renders double the wait each time, up to 30 seconds, and the last
// good tree stays on screen. The replay watcher and the UI's refresh key both
// call Poller.Refresh to skip the wait.
//
// # Errors
//
// Configuration and log file errors are returned from Run. Render errors
// never are: the renderer logs them and yields the fallback message. In
// plain mode Run returns ErrFallback after printing it so the command can
// exit non-zero.
package app
