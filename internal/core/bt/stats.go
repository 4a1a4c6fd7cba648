package bt

// Stats counts scheduler work since the Tree was created.
type Stats struct {
	Steps       uint64 // entries popped from the queue
	Ticks       uint64 // leaf ticks
	Requeues    uint64 // Running results pushed back
	Activations uint64
	Completions uint64 // terminal results produced by Tick
	Aborts      uint64
	Dropped     uint64 // aborted or stale entries discarded
}
