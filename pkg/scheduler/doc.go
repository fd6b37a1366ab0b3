// Package scheduler runs periodic jobs inside the process.
//
// A Schedule computes the next run time from the previous one. Scheduler
// starts one loop per registered job; a job never overlaps with itself, and
// a run that outlasts its slot simply delays the next one. Failed runs are
// logged and retried at the next slot.
//
//	s := scheduler.New(scheduler.WithLogger(log))
//	_ = s.Register("expiry_sweep", scheduler.DailyAt(2, 0), sweep)
//	err := s.Run(ctx) // blocks until ctx is cancelled
package scheduler
