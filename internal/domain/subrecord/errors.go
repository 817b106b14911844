package subrecord

import "errors"

var (
	ErrNotFound        = errors.New("item does not exist")
	ErrSingletonExists = errors.New("a singleton subrecord already exists for this owner")
	ErrUnknownType     = errors.New("unknown subrecord type")
	ErrDuplicateType   = errors.New("subrecord type already registered")
	ErrNotStruct       = errors.New("subrecord prototype must be a pointer to a struct")
)
