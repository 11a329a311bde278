package mempool

// Warmup eagerly carves every configured size class's slab instead of
// waiting for its first AllocFixed call, trading a little startup latency
// to avoid the first request in a given class ever paying the carve cost.
func (p *Pool) Warmup() {
	p.classesMu.Lock()
	classes := make([]*sizeClass, len(p.classes))
	copy(classes, p.classes)
	p.classesMu.Unlock()

	for _, c := range classes {
		p.ensureCarved(c)
	}
	traceLog("Warmup")
}
