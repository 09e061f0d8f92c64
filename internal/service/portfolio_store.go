package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Segevolp/AlgoTrade/internal/api/request"
	"github.com/Segevolp/AlgoTrade/internal/api/response"
	"github.com/Segevolp/AlgoTrade/internal/apperrors"
	"github.com/Segevolp/AlgoTrade/internal/events"
	"github.com/Segevolp/AlgoTrade/internal/model"
	"github.com/Segevolp/AlgoTrade/internal/validation"
)

// PortfolioStore is the client-side cache of the user's portfolios plus the
// active selection. The cache only changes after the backend confirmed a
// mutation, and it only ever holds what the backend returned.
type PortfolioStore struct {
	mu         sync.RWMutex
	portfolios []model.Portfolio
	activeID   model.ID
	// generation changes on every Reset. Responses to requests issued under an
	// older generation are discarded.
	generation uint64

	gateway Gateway
	bus     *events.Bus
	seq     *Sequencer
	log     zerolog.Logger

	unsubscribe []func()
}

// NewPortfolioStore creates an empty store. The store clears itself whenever the
// session ends or is invalidated.
func NewPortfolioStore(gateway Gateway, bus *events.Bus, seq *Sequencer, log zerolog.Logger) *PortfolioStore {
	s := &PortfolioStore{
		gateway: gateway,
		bus:     bus,
		seq:     seq,
		log:     log.With().Str("component", "portfolios").Logger(),
	}
	reset := func(*events.Event) { s.Reset() }
	s.unsubscribe = []func(){
		bus.Subscribe(events.SessionInvalidated, reset),
		bus.Subscribe(events.SessionEnded, reset),
	}
	return s
}

// Close detaches the store from the event bus.
func (s *PortfolioStore) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
}

// Load replaces the cache with the server's portfolio list. When nothing is
// selected, or the selection vanished, the first portfolio in server order
// becomes active.
func (s *PortfolioStore) Load(ctx context.Context) ([]model.Portfolio, error) {
	ticket := s.seq.Begin(TargetPortfolios)

	var resp response.PortfoliosResponse
	if err := s.gateway.Do(ctx, http.MethodGet, "/portfolios", nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Portfolios {
		resp.Portfolios[i].Normalize()
	}

	s.mu.Lock()
	if !s.seq.Accept(ticket) {
		s.mu.Unlock()
		return nil, apperrors.ErrSuperseded
	}
	s.portfolios = resp.Portfolios
	if s.indexOf(s.activeID) < 0 {
		s.activeID = ""
		if len(s.portfolios) > 0 {
			s.activeID = s.portfolios[0].ID
		}
	}
	out := s.snapshot()
	s.mu.Unlock()

	s.log.Debug().Int("count", len(out)).Msg("Portfolios loaded")
	s.changed()
	return out, nil
}

// Create creates a portfolio named name (trimmed) and makes it active.
func (s *PortfolioStore) Create(ctx context.Context, name string) (model.Portfolio, error) {
	req := request.CreatePortfolioRequest{Name: strings.TrimSpace(name)}
	if err := validation.ValidateCreatePortfolio(req); err != nil {
		return model.Portfolio{}, err
	}

	gen := s.currentGeneration()
	var resp response.PortfolioResponse
	if err := s.gateway.Do(ctx, http.MethodPost, "/portfolios", req, &resp); err != nil {
		return model.Portfolio{}, err
	}
	if resp.Portfolio == nil || resp.Portfolio.ID == "" {
		return model.Portfolio{}, missingField(http.MethodPost, "/portfolios", "portfolio")
	}
	created := *resp.Portfolio
	created.Normalize()
	if created.Items == nil {
		created.Items = []model.PortfolioItem{}
	}

	s.mu.Lock()
	if !s.confirm(gen) {
		s.mu.Unlock()
		return model.Portfolio{}, apperrors.ErrSuperseded
	}
	if i := s.indexOf(created.ID); i >= 0 {
		s.portfolios[i] = created
	} else {
		s.portfolios = append(s.portfolios, created)
	}
	s.activeID = created.ID
	s.mu.Unlock()

	s.log.Info().Str("portfolio_id", created.ID.String()).Msg("Portfolio created")
	s.changed()
	return created.Clone(), nil
}

// Remove deletes a portfolio. When it was active, the first remaining portfolio
// becomes active, or nothing when none remain.
func (s *PortfolioStore) Remove(ctx context.Context, id string) error {
	if err := s.requireCached(id); err != nil {
		return err
	}

	gen := s.currentGeneration()
	ticket := s.seq.Begin(PortfolioTarget(id))
	path := portfolioPath(id)
	if err := s.gateway.Do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.seq.Accept(ticket) || !s.confirm(gen) {
		s.mu.Unlock()
		return apperrors.ErrSuperseded
	}
	if i := s.indexOf(model.ID(id)); i >= 0 {
		s.portfolios = append(s.portfolios[:i:i], s.portfolios[i+1:]...)
	}
	if s.activeID == model.ID(id) {
		s.activeID = ""
		if len(s.portfolios) > 0 {
			s.activeID = s.portfolios[0].ID
		}
	}
	s.mu.Unlock()

	s.log.Info().Str("portfolio_id", id).Msg("Portfolio removed")
	s.changed()
	return nil
}

// AddItem coerces input and adds it to the portfolio. Only the item the server
// returns is written to the cache.
func (s *PortfolioStore) AddItem(ctx context.Context, portfolioID string, input model.ItemInput) (model.PortfolioItem, error) {
	req, err := validation.CoerceItem(input)
	if err != nil {
		return model.PortfolioItem{}, err
	}
	if err := s.requireCached(portfolioID); err != nil {
		return model.PortfolioItem{}, err
	}

	gen := s.currentGeneration()
	path := portfolioPath(portfolioID) + "/items"
	var resp response.ItemResponse
	if err := s.gateway.Do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return model.PortfolioItem{}, err
	}
	if resp.Item == nil {
		return model.PortfolioItem{}, missingField(http.MethodPost, path, "item")
	}
	item := *resp.Item
	item.Normalize()

	s.mu.Lock()
	if !s.confirm(gen) {
		s.mu.Unlock()
		return model.PortfolioItem{}, apperrors.ErrSuperseded
	}
	s.putItem(model.ID(portfolioID), item)
	s.mu.Unlock()

	s.changed()
	return item, nil
}

// UpdateItem coerces input and replaces the item. Only the item the server
// returns is written to the cache.
func (s *PortfolioStore) UpdateItem(ctx context.Context, portfolioID, itemID string, input model.ItemInput) (model.PortfolioItem, error) {
	req, err := validation.CoerceItem(input)
	if err != nil {
		return model.PortfolioItem{}, err
	}
	if err := validation.ValidateID("item_id", itemID); err != nil {
		return model.PortfolioItem{}, err
	}
	if err := s.requireCached(portfolioID); err != nil {
		return model.PortfolioItem{}, err
	}

	gen := s.currentGeneration()
	ticket := s.seq.Begin(ItemTarget(portfolioID, itemID))
	path := itemPath(portfolioID, itemID)
	var resp response.ItemResponse
	if err := s.gateway.Do(ctx, http.MethodPut, path, req, &resp); err != nil {
		return model.PortfolioItem{}, err
	}
	if resp.Item == nil {
		return model.PortfolioItem{}, missingField(http.MethodPut, path, "item")
	}
	item := *resp.Item
	item.Normalize()
	if item.ID == "" {
		item.ID = model.ID(itemID)
	}

	s.mu.Lock()
	if !s.seq.Accept(ticket) || !s.confirm(gen) {
		s.mu.Unlock()
		return model.PortfolioItem{}, apperrors.ErrSuperseded
	}
	s.putItem(model.ID(portfolioID), item)
	s.mu.Unlock()

	s.changed()
	return item, nil
}

// RemoveItem deletes an item from the portfolio.
func (s *PortfolioStore) RemoveItem(ctx context.Context, portfolioID, itemID string) error {
	if err := validation.ValidateID("item_id", itemID); err != nil {
		return err
	}
	if err := s.requireCached(portfolioID); err != nil {
		return err
	}

	gen := s.currentGeneration()
	ticket := s.seq.Begin(ItemTarget(portfolioID, itemID))
	if err := s.gateway.Do(ctx, http.MethodDelete, itemPath(portfolioID, itemID), nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.seq.Accept(ticket) || !s.confirm(gen) {
		s.mu.Unlock()
		return apperrors.ErrSuperseded
	}
	if i := s.indexOf(model.ID(portfolioID)); i >= 0 {
		p := &s.portfolios[i]
		if j := p.ItemIndex(model.ID(itemID)); j >= 0 {
			p.Items = append(p.Items[:j:j], p.Items[j+1:]...)
		}
	}
	s.mu.Unlock()

	s.changed()
	return nil
}

// ComputeValue returns the summed cost basis (quantity times purchase price) of p.
func (s *PortfolioStore) ComputeValue(p model.Portfolio) float64 {
	return p.Value()
}

// Portfolios returns a copy of the cached portfolios in server order.
func (s *PortfolioStore) Portfolios() []model.Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Get returns a copy of the cached portfolio with the given id.
func (s *PortfolioStore) Get(id string) (model.Portfolio, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(model.ID(id)); i >= 0 {
		return s.portfolios[i].Clone(), true
	}
	return model.Portfolio{}, false
}

// Active returns a copy of the active portfolio.
func (s *PortfolioStore) Active() (model.Portfolio, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(s.activeID); i >= 0 {
		return s.portfolios[i].Clone(), true
	}
	return model.Portfolio{}, false
}

// Select makes the cached portfolio with the given id active.
func (s *PortfolioStore) Select(id string) error {
	s.mu.Lock()
	if s.indexOf(model.ID(id)) < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", apperrors.ErrPortfolioNotFound, id)
	}
	s.activeID = model.ID(id)
	s.mu.Unlock()

	s.changed()
	return nil
}

// Reset empties the cache and clears the selection. Responses to requests that
// were in flight, mutations included, are discarded when they arrive.
func (s *PortfolioStore) Reset() {
	s.seq.Supersede(TargetPortfolios)
	s.seq.SupersedePrefix(PortfolioTarget(""))
	s.seq.SupersedePrefix("item:")

	s.mu.Lock()
	s.portfolios = nil
	s.activeID = ""
	s.generation++
	s.mu.Unlock()

	s.log.Debug().Msg("Portfolio cache reset")
}

func (s *PortfolioStore) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// confirm reports whether a mutation issued under gen may be applied. When it
// may, list loads still in flight are superseded: their snapshot predates the
// mutation. Callers hold s.mu.
func (s *PortfolioStore) confirm(gen uint64) bool {
	if s.generation != gen {
		return false
	}
	s.seq.Supersede(TargetPortfolios)
	return true
}

func (s *PortfolioStore) requireCached(id string) error {
	if err := validation.ValidateID("portfolio_id", id); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.indexOf(model.ID(id)) < 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrPortfolioNotFound, id)
	}
	return nil
}

// putItem replaces the item with the same id, or appends it. A portfolio that
// left the cache while the request was in flight is not recreated.
// Callers hold s.mu.
func (s *PortfolioStore) putItem(portfolioID model.ID, item model.PortfolioItem) {
	i := s.indexOf(portfolioID)
	if i < 0 {
		return
	}
	p := &s.portfolios[i]
	if j := p.ItemIndex(item.ID); j >= 0 && item.ID != "" {
		p.Items[j] = item
		return
	}
	p.Items = append(p.Items, item)
}

// Callers hold s.mu.
func (s *PortfolioStore) indexOf(id model.ID) int {
	if id == "" {
		return -1
	}
	for i := range s.portfolios {
		if s.portfolios[i].ID == id {
			return i
		}
	}
	return -1
}

// Callers hold s.mu.
func (s *PortfolioStore) snapshot() []model.Portfolio {
	out := make([]model.Portfolio, len(s.portfolios))
	for i, p := range s.portfolios {
		out[i] = p.Clone()
	}
	return out
}

func (s *PortfolioStore) changed() {
	s.mu.RLock()
	data := &events.PortfoliosChangedData{Count: len(s.portfolios), ActiveID: s.activeID.String()}
	s.mu.RUnlock()
	s.bus.Publish(data)
}

func portfolioPath(id string) string {
	return "/portfolios/" + url.PathEscape(id)
}

func itemPath(portfolioID, itemID string) string {
	return portfolioPath(portfolioID) + "/items/" + url.PathEscape(itemID)
}
