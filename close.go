package zimgraph

// Close releases the archive if the Graph opened it. Further calls fail
// with ErrClosed; closing twice is a no-op.
func (g *Graph) Close() error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	if g.ownsArchive {
		return translateError(g.archive.Close())
	}
	return nil
}
