// Package gate provides named admission gates: non-blocking counting
// semaphores that bound how many scenarios may touch a constrained resource
// at once.
//
// Acquire never waits. It either takes a free permit or returns false, which
// lets step implementations choose a "skip if busy" policy. Wait layers FIFO
// blocking acquisition on top of the same permit counter for callers that do
// want to queue. While any caller is queued in Wait, Acquire refuses to take a
// permit so that a released permit always goes to the longest waiter.
//
// A holder owns at most one permit per gate. Acquiring again before releasing
// is a programming error and panics; releasing without holding is a no-op.
package gate
