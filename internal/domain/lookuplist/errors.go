package lookuplist

import "errors"

var ErrUnknownList = errors.New("unknown lookup list")
