package revwalk

import "math"

// overScan is how many uninteresting commits the pending generator pops,
// after every queued commit became uninteresting, before it gives up.
const overScan = 5

// pendingGenerator pops commits by date, queues their unseen parents,
// carries flags down and decides which commits to produce.
type pendingGenerator struct {
	w        *Walk
	pending  *dateQueue
	rewrite  *rewriteTreeFilter
	last     int64
	overScan int
}

func newPendingGenerator(w *Walk, pending *dateQueue, rewrite *rewriteTreeFilter) *pendingGenerator {
	return &pendingGenerator{w: w, pending: pending, rewrite: rewrite, last: math.MaxInt64, overScan: overScan}
}

func (g *pendingGenerator) next() (*RevCommit, error) {
	for {
		c, err := g.pending.next()
		if err != nil || c == nil {
			return nil, err
		}

		produce := c.flags&flagUninteresting == 0
		if produce && g.rewrite != nil {
			produce, err = g.rewrite.include(c)
			if err != nil {
				return nil, err
			}
		}

		for _, p := range c.GraphParents() {
			if p.flags&flagSeen != 0 {
				continue
			}
			if err := g.w.parseHeaders(p); err != nil {
				return nil, err
			}
			p.flags |= flagSeen
			g.pending.add(p)
		}
		if carry := c.flags & g.w.carry; carry != 0 {
			carryFlags(c, carry)
		}

		if c.flags&flagUninteresting != 0 {
			if g.pending.everybodyHas(flagUninteresting) {
				n := g.pending.peek()
				if n != nil && n.commitTime >= g.last {
					// The next commit is dated after the last one produced;
					// keep going so flags are carried far enough.
					g.overScan = overScan
				} else if g.overScan--; g.overScan == 0 {
					g.pending.clear()
					return nil, nil
				}
			} else {
				g.overScan = overScan
			}
			continue
		}
		if produce {
			g.last = c.commitTime
			return c, nil
		}
	}
}

// rewriteGenerator rewrites graph parents past commits flagged for
// rewriting, so the output graph only links commits that were produced.
type rewriteGenerator struct {
	source generator
}

func (g *rewriteGenerator) next() (*RevCommit, error) {
	c, err := g.source.next()
	if err != nil || c == nil {
		return nil, err
	}
	parents := c.GraphParents()
	rewrote := false
	out := make([]*RevCommit, len(parents))
	for i, p := range parents {
		out[i] = rewriteParent(p)
		if out[i] != p {
			rewrote = true
		}
	}
	if rewrote {
		c.graph = cleanupParents(out)
	}
	return c, nil
}

// rewriteParent follows single-parent rewrite chains from p to the first
// commit that must stay in the graph. It returns nil when the chain runs
// off a root that was itself rewritten away.
func rewriteParent(p *RevCommit) *RevCommit {
	for {
		if p.flags&flagUninteresting != 0 {
			return p
		}
		if p.flags&flagRewrite == 0 {
			return p
		}
		parents := p.GraphParents()
		if len(parents) > 1 {
			return p
		}
		if len(parents) == 0 {
			return nil
		}
		p = parents[0]
	}
}

// cleanupParents drops nil and duplicate entries, keeping first occurrences.
func cleanupParents(in []*RevCommit) []*RevCommit {
	out := make([]*RevCommit, 0, len(in))
	for _, p := range in {
		if p == nil || p.flags&flagDuplicate != 0 {
			continue
		}
		p.flags |= flagDuplicate
		out = append(out, p)
	}
	for _, p := range out {
		p.flags &^= flagDuplicate
	}
	return out
}

// topoGenerator holds back every commit until all of its children in the
// buffered output have been produced.
type topoGenerator struct {
	pending *fifoQueue
}

func newTopoGenerator(source generator) (*topoGenerator, error) {
	pending := newFIFO()
	for {
		c, err := source.next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			break
		}
		for _, p := range c.GraphParents() {
			p.inDegree++
		}
		pending.add(c)
	}
	return &topoGenerator{pending: pending}, nil
}

func (g *topoGenerator) next() (*RevCommit, error) {
	for {
		c, _ := g.pending.next()
		if c == nil {
			return nil, nil
		}
		if c.inDegree > 0 {
			// A child is still to come; the last child unpops us.
			c.flags |= flagTopoDelay
			continue
		}
		for _, p := range c.GraphParents() {
			p.inDegree--
			if p.inDegree == 0 && p.flags&flagTopoDelay != 0 {
				p.flags &^= flagTopoDelay
				g.pending.unpop(p)
			}
		}
		return c, nil
	}
}

// delayGenerator keeps a small window of output buffered, giving the
// pending generator time to mark clock-skewed commits uninteresting
// before they leave.
type delayGenerator struct {
	source generator
	delay  *fifoQueue
}

func (g *delayGenerator) next() (*RevCommit, error) {
	for g.delay.size() < overScan+1 {
		c, err := g.source.next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			break
		}
		g.delay.add(c)
	}
	return g.delay.next()
}

// fixUninterestingGenerator drops commits that became uninteresting
// after they were produced.
type fixUninterestingGenerator struct {
	source generator
}

func (g *fixUninterestingGenerator) next() (*RevCommit, error) {
	for {
		c, err := g.source.next()
		if err != nil || c == nil {
			return nil, err
		}
		if c.flags&flagUninteresting == 0 {
			return c, nil
		}
	}
}

// boundaryGenerator passes its source through, remembering uninteresting
// parents of what it produced, then produces those parents once each.
type boundaryGenerator struct {
	w        *Walk
	source   generator
	held     []*RevCommit
	boundary *fifoQueue
}

func (g *boundaryGenerator) next() (*RevCommit, error) {
	if g.boundary == nil {
		c, err := g.source.next()
		if err != nil {
			return nil, err
		}
		if c != nil {
			for _, p := range c.GraphParents() {
				if p.flags&flagUninteresting != 0 {
					g.held = append(g.held, p)
				}
			}
			return c, nil
		}
		g.boundary = newFIFO()
		for _, p := range g.held {
			if p.flags&flagDuplicate != 0 {
				continue
			}
			if err := g.w.parseHeaders(p); err != nil {
				return nil, err
			}
			p.flags |= flagDuplicate | flagBoundary
			g.boundary.add(p)
		}
		for _, p := range g.held {
			p.flags &^= flagDuplicate
		}
		g.held = nil
	}
	return g.boundary.next()
}
