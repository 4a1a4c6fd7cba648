package loader

import "errors"

var (
	ErrUnknownLeaf     = errors.New("unknown leaf")
	ErrUnknownNodeType = errors.New("unknown node type")
	ErrMissingNode     = errors.New("missing node")
	ErrSharedNode      = errors.New("node referenced by more than one parent")
	ErrCycle           = errors.New("cycle in tree definition")
	ErrInvalidParam    = errors.New("invalid parameter")
)
