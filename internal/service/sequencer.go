package service

import (
	"strings"
	"sync"
)

// Sequence target names.
const (
	TargetSession    = "session"
	TargetPortfolios = "portfolios"
)

// PortfolioTarget is the target of mutations of a whole portfolio.
func PortfolioTarget(id string) string { return "portfolio:" + id }

// ItemTarget is the target of mutations of a single portfolio item.
func ItemTarget(portfolioID, itemID string) string { return "item:" + portfolioID + ":" + itemID }

// PredictTarget is the target of earnings predictions for a portfolio.
func PredictTarget(id string) string { return "predict:" + id }

// Ticket identifies one in-flight request for a target.
type Ticket struct {
	Target string
	Seq    uint64
}

// Sequencer numbers the requests issued for each target so a response that
// arrives after a newer one was applied can be recognised and dropped.
type Sequencer struct {
	mu       sync.Mutex
	issued   map[string]uint64
	accepted map[string]uint64
}

// NewSequencer creates an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{
		issued:   make(map[string]uint64),
		accepted: make(map[string]uint64),
	}
}

// Begin issues the next ticket for target. Call it before sending the request.
func (s *Sequencer) Begin(target string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[target]++
	return Ticket{Target: target, Seq: s.issued[target]}
}

// Accept reports whether the response for t may be applied, and records it as the
// newest applied response when it may. Responses older than the last accepted one
// for the same target are refused.
func (s *Sequencer) Accept(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Seq <= s.accepted[t.Target] {
		return false
	}
	s.accepted[t.Target] = t.Seq
	return true
}

// Supersede makes every ticket issued so far for target stale.
func (s *Sequencer) Supersede(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accepted[target] = s.issued[target]
}

// SupersedePrefix makes every ticket issued so far stale for all targets starting with prefix.
func (s *Sequencer) SupersedePrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for target, seq := range s.issued {
		if strings.HasPrefix(target, prefix) {
			s.accepted[target] = seq
		}
	}
}
