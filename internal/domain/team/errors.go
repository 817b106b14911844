package team

import "errors"

var ErrTeamNotFound = errors.New("unknown tag")
