// Package logtail reads the end of the ts3view log file and parses its
// records for display in the TUI.
//
// # Reading
//
// Read uses a ring buffer of size maxLines, so the last lines of a large
// file are returned in one pass with O(maxLines) memory. A missing file is
// not an error; the log may simply not exist yet.
//
// # Parsing
//
// The application logs with slog.TextHandler, which writes key=value pairs
// and quotes values that contain spaces:
//
//	time=2026-03-01T10:15:30.000Z level=ERROR msg="viewer render failed" err="..."
//
// ParseLine turns such a line into an Entry. Lines written by something else
// (a panic trace, for instance) are kept verbatim as the message.
package logtail
