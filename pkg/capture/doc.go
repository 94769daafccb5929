// Package capture turns a stream of power samples into logged bytes.
//
// A Source yields one Entry per reading. A Sampler polls a Source on a
// fixed interval, encodes each entry to its wire form, and pushes the bytes
// into a logger session. A Schedule runs whole recording windows on a cron
// expression, opening a fresh session per window with a timestamped file
// name.
//
// # Sampling
//
//	sampler := capture.NewSampler(capture.SamplerConfig{
//		Source: source,
//		Logger: l,
//	})
//	if err := sampler.Start(); err != nil {
//		return err
//	}
//	defer sampler.Stop()
//
// The sampler tolerates individual read failures: a failed read is reported
// through OnError and skipped, and polling continues.
//
// # Scheduled recording
//
//	schedule, err := capture.NewSchedule(capture.ScheduleConfig{
//		Spec:   "0 0 9 * * *",
//		Window: 10 * time.Minute,
//		Dir:    "/var/log/power",
//		Source: source,
//	})
//
// Cron expressions use six fields with seconds first, plus the @every and
// @daily style descriptors.
package capture
