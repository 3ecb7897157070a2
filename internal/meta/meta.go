// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"

	"github.com/staranto/locspoof/internal/config"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args     []string
	Config   config.Type
	Context  context.Context
	Settings config.Settings
}
