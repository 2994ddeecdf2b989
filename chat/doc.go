// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

// Package chat assembles the full client: the session store, the query
// responders, the speech controller and the renderer, wired together the
// way the PACURE IA front end uses them. Hosts construct a Client and
// drive the conversation through it.
package chat
