// Copyright (c) 2025 Pacure Labs
// SPDX-License-Identifier: MIT

// Package render turns resolved answers into the sanitized HTML markup an
// assistant message carries. Answer text is parsed as CommonMark and the
// output is run through a UGC sanitization policy, so backend content can
// never inject scripts into the transcript. Failures render as an
// error-marked notice in the same markup form.
package render
