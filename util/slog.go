package util

import (
	"log/slog"
	"slices"
	"sync/atomic"
	"time"
)

// measurementID tells apart overlapping measurements of the same operation, such as loads of two views.
var measurementID = &atomic.Int64{}

// SLogSampleRepeated returns a function to call once per iteration of a repeated operation. Each call logs the time
// since the previous call along with the running average and total.
func SLogSampleRepeated(operation string, args ...any) func(args ...any) {
	var (
		sample = 0
		start  = time.Now()
		last   = start
	)

	return func(sampleArgs ...any) {
		now := time.Now()
		sample++

		attrs := append(slices.Clone(args), sampleArgs...)
		attrs = append(attrs,
			slog.String("operation", operation),
			slog.Int("sample", sample),
			slog.Duration("elapsed", now.Sub(last)),
			slog.Duration("average", now.Sub(start)/time.Duration(sample)),
			slog.Duration("total", now.Sub(start)),
		)

		slog.Info("Sampled repeated operation", attrs...)
		last = now
	}
}

// SLogMeasureFunction logs the start of an operation and returns the function that logs its end. Arguments given at
// the end are appended to those given at the start.
func SLogMeasureFunction(operation string, args ...any) func(args ...any) {
	var (
		start = time.Now()
		attrs = append(slices.Clone(args),
			slog.String("operation", operation),
			slog.Int64("measurement_id", measurementID.Add(1)),
		)
	)

	slog.Info("Operation started", attrs...)

	return func(finishArgs ...any) {
		finished := append(slices.Clone(attrs), slog.Duration("elapsed", time.Since(start)))
		slog.Info("Operation finished", append(finished, finishArgs...)...)
	}
}
