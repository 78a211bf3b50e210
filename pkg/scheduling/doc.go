// Package scheduling implements a fixed pool of long-lived workers dispatched
// by fatigue.
//
// Every worker is created with a fatigue weight that never changes. Idle
// workers wait in a min-heap ordered by that weight, and Submit always hands a
// task to the least fatigued idle worker through the worker's single-slot
// mailbox. A mailbox that is unexpectedly occupied puts the worker back in the
// heap and the submission retries; such races are never reported to callers.
//
// The scheduler owns the in-flight counter. SubmitAll submits a batch and then
// blocks until the counter drops to zero, so it acts as a quiescence barrier
// rather than a per-task future. Task errors and recovered panics are
// collected while the batch runs and returned by the barrier.
//
// Busy and idle time are measured per worker for WorkerReport only; they do
// not feed back into dispatch order.
package scheduling
