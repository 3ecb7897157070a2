// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output provides sorting, filtering, and emission utilities used by
// commands to present country lists and details in various formats.
package output
