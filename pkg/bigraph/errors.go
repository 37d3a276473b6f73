package bigraph

import "errors"

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrUnknownControl   = errors.New("unknown control")
	ErrArityMismatch    = errors.New("port count does not match control arity")
	ErrNotAPlace        = errors.New("place does not belong to this bigraph")
	ErrNotANode         = errors.New("place is not a node")
	ErrDuplicateName    = errors.New("duplicate name")
	ErrMalformed        = errors.New("malformed bigraph")
)
