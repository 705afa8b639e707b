package config

import "errors"

var ErrUnknownHasher = errors.New("unknown hasher")
var ErrInvalidSegmentSize = errors.New("invalid initial segment size")
var ErrInvalidWorkload = errors.New("invalid workload parameters")
var ErrConfigIsNil = errors.New("config is nil")
