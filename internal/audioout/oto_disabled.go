//go:build !oto

package audioout

import (
	"fmt"

	"github.com/bluenviron/avplay/internal/logger"
)

func newOto(_ logger.Writer) (Device, error) {
	return nil, fmt.Errorf("oto support is not included in this build, rebuild with -tags oto")
}
