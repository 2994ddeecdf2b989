// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

// Package dispatch resolves user queries into answers. The Client submits
// queries to the PACURE backend over HTTP; Local answers a small set of
// conversational queries without touching the network. Failures carry a
// Kind so callers can tell a dead network from a misbehaving server.
package dispatch
