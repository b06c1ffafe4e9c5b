package shnframe

import "errors"

// Sentinel errors surfaced by header parsing and block decoding. The root
// shn package re-exports these so callers never need to import this
// internal package directly.
var (
	ErrInvalidMagic        = errors.New("shn: not a Shorten stream (invalid magic)")
	ErrUnsupportedVersion  = errors.New("shn: unsupported stream version")
	ErrUnsupportedFileType = errors.New("shn: unsupported file type")
	ErrInvalidCommand      = errors.New("shn: invalid command")
	ErrInvalidBlockSize    = errors.New("shn: invalid block size")
	ErrInvalidLpcOrder     = errors.New("shn: invalid LPC order")
	ErrMissingWaveHeader   = errors.New("shn: missing WAVE header")
)
