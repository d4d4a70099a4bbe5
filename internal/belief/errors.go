package belief

import "errors"

var ErrUnknownTarget = errors.New("belief: no state for that target yet")
