package segmenter

// HotkeyCombination is a chord: every key in the set must be held
// simultaneously, in any order, to activate it (spec §4.7).
type HotkeyCombination []string

func (c HotkeyCombination) satisfiedBy(held map[string]bool) bool {
	if len(c) == 0 {
		return false
	}
	for _, k := range c {
		if !held[k] {
			return false
		}
	}
	return true
}

const pttLookbackMs = 100

// PTT implements the C8 push-to-talk gate: it opens a segment when any
// configured hotkey combination becomes fully held, and closes it the
// instant the chord breaks.
type PTT struct {
	ring  Ring
	queue chan<- *Segment

	combos []HotkeyCombination
	held   map[string]bool

	active   bool
	segStart uint64
}

// NewPTT creates a push-to-talk gate over the given combos.
func NewPTT(ring Ring, queue chan<- *Segment, combos []HotkeyCombination) *PTT {
	return &PTT{ring: ring, queue: queue, combos: combos, held: make(map[string]bool)}
}

// SetHotkeys replaces the configured combination set (idempotent per spec
// §4.9 set_ptt_hotkeys).
func (p *PTT) SetHotkeys(combos []HotkeyCombination) {
	p.combos = combos
}

func (p *PTT) anySatisfied() bool {
	for _, c := range p.combos {
		if c.satisfiedBy(p.held) {
			return true
		}
	}
	return false
}

// KeyDown records a key press at sampleIndex and opens a segment the moment
// a configured chord becomes fully held.
func (p *PTT) KeyDown(key string, sampleIndex uint64) {
	p.held[key] = true
	if !p.active && p.anySatisfied() {
		lookback := uint64(pttLookbackMs) * rate / 1000
		start := sampleIndex
		if lookback < start {
			start -= lookback
		} else {
			start = 0
		}
		p.segStart = start
		p.active = true
	}
}

// KeyUp records a key release at sampleIndex and, if this breaks the chord
// that was active, closes and enqueues the segment.
func (p *PTT) KeyUp(key string, sampleIndex uint64) {
	delete(p.held, key)
	if p.active && !p.anySatisfied() {
		p.cut(sampleIndex, ClosedPTTRelease)
		p.active = false
	}
}

func (p *PTT) cut(end uint64, reason ClosedReason) {
	if end <= p.segStart {
		return
	}
	samples, err := p.ring.Read(p.segStart, end)
	if err != nil || len(samples) == 0 {
		return
	}
	p.queue <- &Segment{StartIndex: p.segStart, EndIndex: end, Samples: samples, Origin: OriginPushToTalk, ClosedBecause: reason}
}
