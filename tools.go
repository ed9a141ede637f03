//go:build tools

package geomosaic

import (
	_ "github.com/dmarkham/enumer"
)
