package ingest

// Pool recycles Records through a buffered channel so the producer hot path
// allocates nothing once warm. Exhaustion falls back to the heap.
type Pool struct {
	records chan *Record
}

const DefaultPoolSize = 4096

func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	p := &Pool{records: make(chan *Record, size)}
	for i := 0; i < size; i++ {
		p.records <- &Record{}
	}
	return p
}

func (p *Pool) Get() *Record {
	select {
	case rec := <-p.records:
		return rec
	default:
		return &Record{}
	}
}

func (p *Pool) Put(rec *Record) {
	*rec = Record{}
	select {
	case p.records <- rec:
	default:
		// pool full, let GC reclaim
	}
}
