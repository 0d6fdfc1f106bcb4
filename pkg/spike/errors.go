package spike

import "errors"

// Run-terminating errors. Callers match them with errors.Is; the wrapped
// message names the parameters in effect.
var (
	// ErrConfiguration indicates invalid or inconsistent run parameters.
	ErrConfiguration = errors.New("invalid spike configuration")
	// ErrNoClustersFound indicates that cluster mode found no cluster of the minimum size.
	ErrNoClustersFound = errors.New("no clusters found")
	// ErrInsufficientSpikes indicates that no bin reached the minimum spike count.
	ErrInsufficientSpikes = errors.New("no bins contained enough spike-ins")
)
