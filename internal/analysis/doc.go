// Package analysis runs voice activity detection off the caller's goroutine.
// The Manager queues signals as jobs on a bounded set of workers, keeps
// finished results for a while and analyses batches of WAV files.
package analysis
