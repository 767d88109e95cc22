package domain

import "errors"

var (
	// ErrParameterNotFound is returned by remote parameter clients when the
	// parameter does not exist yet (expected on first run).
	ErrParameterNotFound = errors.New("parameter not found")

	// ErrInvalidWindow is returned when a moving-average window does not fit
	// below the requested height.
	ErrInvalidWindow = errors.New("invalid block window")

	// ErrZeroReward is returned when subsidy plus fees is not positive.
	ErrZeroReward = errors.New("block reward is zero")

	// ErrUnsupportedChain is returned for EVM chain ids the job does not know.
	ErrUnsupportedChain = errors.New("chain not supported")

	// ErrJobInProgress is returned when a run is requested while another is active.
	ErrJobInProgress = errors.New("job already in progress")
)
