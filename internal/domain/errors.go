package domain

import "errors"

var (
	ErrConfig       = errors.New("invalid configuration")
	ErrInvalidSince = errors.New("unrecognized time expression")
	ErrRepoAccess   = errors.New("cannot read local repository")
	ErrRemoteQuery  = errors.New("remote query failed")
	ErrEmptyReport  = errors.New("nothing to report")
	ErrDelivery     = errors.New("delivery failed")
)
