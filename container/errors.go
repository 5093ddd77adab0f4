package container

import (
	"fmt"

	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
)

var errShortVarint = fmt.Errorf("%w: truncated varint stream", tachyonerr.ErrInvalidFormat)
