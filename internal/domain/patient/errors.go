package patient

import "errors"

var ErrPatientNotFound = errors.New("patient does not exist")
