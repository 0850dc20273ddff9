package lingua

import "errors"

// ErrUnknownLocale indicates activation was requested for a locale
// with no declared descriptor.
var ErrUnknownLocale = errors.New("unknown locale")

// ErrInvalidDescriptor indicates a descriptor that cannot be
// registered, such as one declaring no sources.
var ErrInvalidDescriptor = errors.New("invalid locale descriptor")
