package state

import "errors"

var (
	ErrNoSuchEntity = errors.New("no such entity")
	ErrDuplicateID  = errors.New("duplicate entity id")
	ErrNotRemovable = errors.New("entity cannot be removed")
)
