//go:build nogpu

package pls

import (
	"errors"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pls/render"
)

func openDevice(render.DeviceHandle, gputypes.TextureFormat) (deviceBinding, error) {
	return nil, errors.New("built without GPU support")
}
