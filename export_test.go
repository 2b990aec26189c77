package texquad

// TimerArmed reports whether the load timeout is still waiting to fire.
// It disarms the timer as a side effect.
func (p *Pending) TimerArmed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil && p.timer.Stop()
}
