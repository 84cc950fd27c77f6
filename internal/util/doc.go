// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across tierroute.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation for log fields
//   - TruncateWidth, StringWidth, PadRight: terminal column math
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	// Truncate prompts before logging them
//	field := util.TruncateRunes(prompt, 50)
//
//	// Fit a status line to the terminal
//	line := util.TruncateWidth(status, width)
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
package util
