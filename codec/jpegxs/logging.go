/*
DESCRIPTION
  logging.go defines the decoder's optional logging callback, per section 6
  of the ISO/IEC 21122 decoder design ("verbosity sink"): callers may supply
  a callback invoked synchronously from decoder goroutines, so it must be
  non-blocking and reentrant.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package jpegxs

import "github.com/ausocean/utils/logging"

// Log is a caller-supplied logging callback. A nil Log disables logging.
type Log func(lvl int8, msg string, args ...interface{})

// logf calls log if it is non-nil, guarding every call site from having to
// nil-check its own logger.
func logf(log Log, lvl int8, msg string, args ...interface{}) {
	if log == nil {
		return
	}
	log(lvl, msg, args...)
}

// Level aliases for the github.com/ausocean/utils/logging levels this
// package logs at.
const (
	logDebug   = logging.Debug
	logInfo    = logging.Info
	logWarning = logging.Warning
	logError   = logging.Error
)
