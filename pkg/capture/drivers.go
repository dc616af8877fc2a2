//go:build drivers

package capture

import (
	// Platform drivers need cgo, so they are only linked if requested.
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
)
