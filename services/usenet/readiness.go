package usenet

import "time"

// ReadinessDecision is the outcome of one poll against the stream-readiness
// heuristic in §4.8: fail on error, stream once the job is fully complete,
// or stream early once percent clears the threshold unless the current
// speed would finish within the smart-complete window anyway.
type ReadinessDecision int

const (
	ReadinessWait ReadinessDecision = iota
	ReadinessStream
	ReadinessFailed
)

const (
	DefaultStreamThresholdPercent = 5.0
	SmartCompleteWindow           = 20 * time.Second
	DefaultMaxWait                = 5 * time.Minute
)

// PollSample records percent complete at a point in time, used to derive
// download speed between two polls for the smart-complete heuristic.
type PollSample struct {
	Percent float64
	At      time.Time
}

// EvaluateReadiness applies the §4.8 decision table given the latest status
// and the previous poll sample (nil on the first poll).
func EvaluateReadiness(status DownloadStatus, prev *PollSample, now time.Time, thresholdPercent float64) ReadinessDecision {
	if status.Failed() {
		return ReadinessFailed
	}
	if status.Completed() {
		return ReadinessStream
	}
	if thresholdPercent <= 0 {
		thresholdPercent = DefaultStreamThresholdPercent
	}
	if status.Percent < thresholdPercent {
		return ReadinessWait
	}
	if prev == nil {
		return ReadinessWait
	}

	elapsed := now.Sub(prev.At).Seconds()
	deltaPercent := status.Percent - prev.Percent
	if elapsed <= 0 || deltaPercent <= 0 {
		return ReadinessWait
	}

	remainingPercent := 100 - status.Percent
	secondsToFinish := (remainingPercent / deltaPercent) * elapsed
	if secondsToFinish < SmartCompleteWindow.Seconds() {
		// Finishing soon anyway; wait for the full file instead of
		// starting a partial stream.
		return ReadinessWait
	}

	return ReadinessStream
}
