// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds per-session routing state.
//
// A State carries the routing mode (auto, pinned, override pending), the
// last committed tier and the session's routing statistics. Nothing is
// persisted; a State lives as long as its hosting session.
//
// # Key Types
//
//   - State: Routing mode and last decision for one session
//   - Mode: Auto, Pinned or OverridePending
//   - Manager: Registry of live sessions with idle expiry
//   - Snapshot: Read-only copy of a State for display
//
// # Usage
//
//	mgr := session.NewManager(session.DefaultConfig())
//	st := mgr.Create()
//	st.Serialize(func() {
//	    // one routing cycle
//	})
//
// # Concurrency
//
// Accessors are safe for concurrent use. Serialize additionally orders whole
// routing operations on one session so a host that does not serialize
// prompt submission still sees one cycle at a time.
package session
