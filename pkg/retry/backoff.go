package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

func ExponentialBackoff(initialInterval, maxInterval time.Duration, multiplier float64, maxElapsed time.Duration) *backoff.ExponentialBackOff {
	exp := backoff.NewExponentialBackOff()
	if initialInterval > 0 {
		exp.InitialInterval = initialInterval
	}
	if maxInterval > 0 {
		exp.MaxInterval = maxInterval
	}
	if multiplier > 0 {
		exp.Multiplier = multiplier
	}
	exp.MaxElapsedTime = maxElapsed
	return exp
}
