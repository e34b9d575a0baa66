package api

import "errors"

// ErrorOutofMemory allocation would exceed the configured capacity.
// Fatal to the embedding engine.
var ErrorOutofMemory = errors.New("heap.outofmemory")

// ErrorReleased heap or arena was used after Release.
var ErrorReleased = errors.New("heap.released")

// ErrorInvalidRef ref does not refer to an allocated cell.
var ErrorInvalidRef = errors.New("heap.invalidref")

// ErrorTooManyArgs more constructor arguments than the allocation entry
// point forwards.
var ErrorTooManyArgs = errors.New("heap.toomanyargs")

// ErrorUnknownType cell stamped with a type id that is not registered.
var ErrorUnknownType = errors.New("heap.unknowntype")

// Headersize size of the fixed header at the start of every managed
// cell.
const Headersize = int64(16)

// ErrorStackOverflow value stack exceeded its configured size.
var ErrorStackOverflow = errors.New("heap.stackoverflow")

// ErrorInvalidHandle handle does not refer to an allocated entry.
var ErrorInvalidHandle = errors.New("heap.invalidhandle")
