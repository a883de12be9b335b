package review

import "errors"

var (
	// ErrInitFailed reports that no engine worker survived pool
	// initialization.
	ErrInitFailed = errors.New("engine pool: no worker initialized")

	// ErrPoolNotReady reports use of a pool before Initialize.
	ErrPoolNotReady = errors.New("engine pool: not initialized")

	// ErrPoolClosed reports use of a pool after Shutdown.
	ErrPoolClosed = errors.New("engine pool: closed")

	// ErrEngineClosed reports use of an engine handle after Shutdown.
	ErrEngineClosed = errors.New("engine: handle closed")

	// ErrEngineStopped reports that the engine process exited while a
	// command was outstanding.
	ErrEngineStopped = errors.New("engine: process exited")

	// ErrNoEvaluation reports a search that produced no usable line.
	ErrNoEvaluation = errors.New("engine: no usable evaluation")

	// ErrNoMove reports that the engine did not return a valid best
	// move.
	ErrNoMove = errors.New("engine: no valid best move")

	// ErrNoPositions reports an analysis request without positions.
	ErrNoPositions = errors.New("analysis needs at least one position")
)
