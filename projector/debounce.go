package projector

import "time"

// SetFilterQuery schedules query after the configured debounce.
func (p *Projector) SetFilterQuery(query string) {
	if p == nil {
		return
	}
	p.SetFilterQueryAfter(query, p.debounce)
}

// ApplyFilterQuery applies query immediately, superseding any pending one.
func (p *Projector) ApplyFilterQuery(query string) {
	p.SetFilterQueryAfter(query, 0)
}

// PendingQuery is the most recently requested query, applied or not.
func (p *Projector) PendingQuery() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pendingQuery
}

// Purpose: Apply query once delay passes without a newer request.
// Key aspects: Restart-on-input; a superseded request never touches state
// because its generation no longer matches when its timer fires.
// Upstream: UI search field, SetFilterQuery, ApplyFilterQuery.
// Downstream: time.AfterFunc, applyQueryLocked, OnChange.
func (p *Projector) SetFilterQueryAfter(query string, delay time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.stopped || p.ctx.Err() != nil {
		p.mu.Unlock()
		return
	}
	p.cancelPendingLocked()
	p.pendingQuery = query
	if delay <= 0 {
		change := p.applyQueryLocked(query)
		p.mu.Unlock()
		p.notify(change)
		return
	}
	gen := p.pendingGen
	p.pendingTimer = time.AfterFunc(delay, func() {
		p.firePending(gen, query)
	})
	p.mu.Unlock()
}

func (p *Projector) firePending(gen uint64, query string) {
	if p.ctx.Err() != nil {
		return
	}
	p.mu.Lock()
	if p.stopped || gen != p.pendingGen {
		p.mu.Unlock()
		return
	}
	p.pendingTimer = nil
	change := p.applyQueryLocked(query)
	p.mu.Unlock()
	p.notify(change)
}

// cancelPendingLocked invalidates the scheduled application, if any.
func (p *Projector) cancelPendingLocked() {
	if p.pendingTimer != nil {
		p.pendingTimer.Stop()
		p.pendingTimer = nil
	}
	p.pendingGen++
}
