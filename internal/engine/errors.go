// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import "errors"

var (
	errHandlerPanicked    = errors.New("engine: handler panicked")
	errUnknownMessageType = errors.New("engine: unknown message type")
	errEngineShuttingDown = errors.New("engine: shutting down")
)
