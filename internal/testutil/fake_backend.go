package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Segevolp/AlgoTrade/internal/api/middleware"
	"github.com/Segevolp/AlgoTrade/internal/api/request"
	"github.com/Segevolp/AlgoTrade/internal/api/response"
	"github.com/Segevolp/AlgoTrade/internal/model"
)

// PredictionGrowth is the factor the fake backend applies to purchase prices to
// produce predicted prices.
const PredictionGrowth = 1.1

// RecordedRequest is one request the fake backend received.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          string
}

type fakeUser struct {
	model.User
	password string
}

type override struct {
	status int
	body   string
}

// FakeBackend is an in-memory implementation of the forecasting backend's HTTP
// contract, served by an httptest.Server. It is safe for concurrent use.
//
// Example usage:
//
//	fb := testutil.NewFakeBackend(t)
//	fb.AddUser("alice", "alice@example.com", "secret")
//	gw := api.NewGateway(fb.URL(), tokens, bus, zerolog.Nop())
type FakeBackend struct {
	mu         sync.Mutex
	users      map[string]*fakeUser
	tokens     map[string]string // token -> username
	portfolios []*ownedPortfolio
	trained    map[model.Algorithm]map[string]bool
	requests   []RecordedRequest
	overrides  map[string][]override
	holds      map[string][]chan struct{}
	nextUserID int

	server *httptest.Server
}

type ownedPortfolio struct {
	owner string
	model.Portfolio
}

// NewFakeBackend starts a fake backend that is shut down when the test completes.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{
		users:     make(map[string]*fakeUser),
		tokens:    make(map[string]string),
		trained:   make(map[model.Algorithm]map[string]bool),
		overrides: make(map[string][]override),
		holds:     make(map[string][]chan struct{}),
	}
	for _, a := range model.Algorithms {
		fb.trained[a] = make(map[string]bool)
	}

	fb.server = httptest.NewServer(fb.router())
	t.Cleanup(fb.server.Close)
	return fb
}

// URL returns the base URL of the fake backend.
func (fb *FakeBackend) URL() string {
	return fb.server.URL
}

func (fb *FakeBackend) router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORS([]string{"http://localhost:3000", "http://localhost"}).Handler)
	r.Use(fb.record)

	r.Post("/register", fb.register)
	r.Post("/login", fb.login)

	r.Group(func(r chi.Router) {
		r.Use(fb.authenticate)

		r.Get("/profile", fb.profile)

		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", fb.listPortfolios)
			r.Post("/", fb.createPortfolio)
			r.Route("/{portfolioId}", func(r chi.Router) {
				r.Delete("/", fb.deletePortfolio)
				r.Post("/items", fb.addItem)
				r.Put("/items/{itemId}", fb.updateItem)
				r.Delete("/items/{itemId}", fb.deleteItem)
				r.Post("/predict", fb.predict)
			})
		})
	})

	r.Route("/{algorithm}", func(r chi.Router) {
		r.Post("/train", fb.train)
		r.Get("/predict", fb.forecast)
		r.Get("/models", fb.models)
	})

	return r
}

// record logs the request, then applies holds and one-shot overrides.
func (fb *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, err := io.ReadAll(r.Body)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "Unreadable body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		fb.mu.Lock()
		fb.requests = append(fb.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get(middleware.RequestIDHeader),
			Body:          string(body),
		})
		var hold chan struct{}
		if hs := fb.holds[key]; len(hs) > 0 {
			hold, fb.holds[key] = hs[0], hs[1:]
		}
		var ov *override
		if pending := fb.overrides[key]; len(pending) > 0 {
			ov, fb.overrides[key] = &pending[0], pending[1:]
		}
		fb.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if ov != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(ov.status)
			_, _ = w.Write([]byte(ov.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddUser registers an account directly.
func (fb *FakeBackend) AddUser(username, email, password string) model.User {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.addUserLocked(username, email, password)
}

func (fb *FakeBackend) addUserLocked(username, email, password string) model.User {
	fb.nextUserID++
	u := &fakeUser{
		User:     model.User{ID: model.ID(strconv.Itoa(fb.nextUserID)), Username: username, Email: email},
		password: password,
	}
	fb.users[username] = u
	return u.User
}

// IssueToken returns a valid access token for username without a login request.
func (fb *FakeBackend) IssueToken(username string) string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.issueTokenLocked(username)
}

func (fb *FakeBackend) issueTokenLocked(username string) string {
	token := "tok-" + uuid.NewString()
	fb.tokens[token] = username
	return token
}

// RevokeTokens invalidates every issued token, as an expiry would.
func (fb *FakeBackend) RevokeTokens() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.tokens = make(map[string]string)
}

// SeedPortfolio stores p for owner, assigning ids where missing, and returns it.
func (fb *FakeBackend) SeedPortfolio(owner string, p model.Portfolio) model.Portfolio {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if p.ID == "" {
		p.ID = model.ID(uuid.NewString())
	}
	if u, ok := fb.users[owner]; ok {
		p.Owner = u.ID
	}
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format("2006-01-02T15:04:05")
	}
	items := make([]model.PortfolioItem, len(p.Items))
	for i, item := range p.Items {
		if item.ID == "" {
			item.ID = model.ID(uuid.NewString())
		}
		items[i] = item
	}
	p.Items = items

	fb.portfolios = append(fb.portfolios, &ownedPortfolio{owner: owner, Portfolio: p})
	return p.Clone()
}

// Portfolio returns the server-side copy of a portfolio.
func (fb *FakeBackend) Portfolio(id string) (model.Portfolio, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, p := range fb.portfolios {
		if p.ID == model.ID(id) {
			return p.Clone(), true
		}
	}
	return model.Portfolio{}, false
}

// MarkTrained records trained models of algorithm a for tickers.
func (fb *FakeBackend) MarkTrained(a model.Algorithm, tickers ...string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, t := range tickers {
		fb.trained[a][model.ModelDirName(strings.ToUpper(t))] = true
	}
}

// Respond makes the next request matching method and path answer status with the
// raw body instead of being handled.
func (fb *FakeBackend) Respond(method, path string, status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	key := method + " " + path
	fb.overrides[key] = append(fb.overrides[key], override{status: status, body: body})
}

// Hold blocks the next request matching method and path until release is called.
func (fb *FakeBackend) Hold(method, path string) (release func()) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	ch := make(chan struct{})
	key := method + " " + path
	fb.holds[key] = append(fb.holds[key], ch)
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Requests returns the requests received so far.
func (fb *FakeBackend) Requests() []RecordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return slices.Clone(fb.requests)
}

// CountRequests returns how many requests matched method and path.
func (fb *FakeBackend) CountRequests(method, path string) int {
	n := 0
	for _, r := range fb.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// handlers

func (fb *FakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		response.RespondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if _, exists := fb.users[req.Username]; exists {
		response.RespondError(w, http.StatusConflict, "Username already exists")
		return
	}
	fb.addUserLocked(req.Username, req.Email, req.Password)
	response.RespondJSON(w, http.StatusCreated, response.Envelope{Success: true, Message: "User registered successfully"})
}

func (fb *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	u, ok := fb.users[req.Username]
	if !ok || u.password != req.Password {
		response.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	user := u.User
	response.RespondJSON(w, http.StatusOK, response.LoginResponse{
		Envelope:    response.OK(),
		AccessToken: fb.issueTokenLocked(req.Username),
		User:        &user,
	})
}

type userKey struct{}

func (fb *FakeBackend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			response.RespondJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Missing Authorization Header"})
			return
		}
		fb.mu.Lock()
		username, valid := fb.tokens[token]
		fb.mu.Unlock()
		if !valid {
			response.RespondJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Token has expired"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, username)))
	})
}

func currentUser(r *http.Request) string {
	username, _ := r.Context().Value(userKey{}).(string)
	return username
}

func (fb *FakeBackend) profile(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	u, ok := fb.users[currentUser(r)]
	fb.mu.Unlock()
	if !ok {
		response.RespondError(w, http.StatusNotFound, "User not found")
		return
	}
	user := u.User
	response.RespondJSON(w, http.StatusOK, response.ProfileResponse{Envelope: response.OK(), User: &user})
}

func (fb *FakeBackend) listPortfolios(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	out := []model.Portfolio{}
	for _, p := range fb.portfolios {
		if p.owner == currentUser(r) {
			out = append(out, p.Clone())
		}
	}
	fb.mu.Unlock()
	response.RespondJSON(w, http.StatusOK, response.PortfoliosResponse{Envelope: response.OK(), Portfolios: out})
}

func (fb *FakeBackend) createPortfolio(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		response.RespondError(w, http.StatusBadRequest, "Portfolio name is required")
		return
	}
	p := fb.SeedPortfolio(currentUser(r), model.Portfolio{Name: req.Name, Items: []model.PortfolioItem{}})
	response.RespondJSON(w, http.StatusCreated, response.PortfolioResponse{Envelope: response.OK(), Portfolio: &p})
}

// owned returns the caller's portfolio named in the URL. Callers hold fb.mu.
func (fb *FakeBackend) owned(r *http.Request) (int, *ownedPortfolio) {
	id := model.ID(chi.URLParam(r, "portfolioId"))
	for i, p := range fb.portfolios {
		if p.ID == id && p.owner == currentUser(r) {
			return i, p
		}
	}
	return -1, nil
}

func (fb *FakeBackend) deletePortfolio(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	i, p := fb.owned(r)
	if p == nil {
		response.RespondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	fb.portfolios = slices.Delete(fb.portfolios, i, i+1)
	response.RespondJSON(w, http.StatusOK, response.Envelope{Success: true, Message: "Portfolio deleted"})
}

func decodeItem(r *http.Request) (request.ItemRequest, bool) {
	var req request.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false
	}
	if req.Ticker == "" || req.Quantity < 0 || req.PurchasePrice < 0 {
		return req, false
	}
	return req, true
}

func (fb *FakeBackend) addItem(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeItem(r)
	if !ok {
		response.RespondError(w, http.StatusBadRequest, "Invalid item")
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	_, p := fb.owned(r)
	if p == nil {
		response.RespondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	item := model.PortfolioItem{
		ID:            model.ID(uuid.NewString()),
		Ticker:        strings.ToUpper(req.Ticker),
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		Notes:         req.Notes,
	}
	p.Items = append(p.Items, item)
	response.RespondJSON(w, http.StatusCreated, response.ItemResponse{Envelope: response.OK(), Item: &item})
}

func (fb *FakeBackend) updateItem(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeItem(r)
	if !ok {
		response.RespondError(w, http.StatusBadRequest, "Invalid item")
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	_, p := fb.owned(r)
	if p == nil {
		response.RespondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	j := p.ItemIndex(model.ID(chi.URLParam(r, "itemId")))
	if j < 0 {
		response.RespondError(w, http.StatusNotFound, "Item not found")
		return
	}
	p.Items[j].Ticker = strings.ToUpper(req.Ticker)
	p.Items[j].Quantity = req.Quantity
	p.Items[j].PurchasePrice = req.PurchasePrice
	p.Items[j].Notes = req.Notes
	item := p.Items[j]
	response.RespondJSON(w, http.StatusOK, response.ItemResponse{Envelope: response.OK(), Item: &item})
}

func (fb *FakeBackend) deleteItem(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	_, p := fb.owned(r)
	if p == nil {
		response.RespondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	j := p.ItemIndex(model.ID(chi.URLParam(r, "itemId")))
	if j < 0 {
		response.RespondError(w, http.StatusNotFound, "Item not found")
		return
	}
	p.Items = slices.Delete(p.Items, j, j+1)
	response.RespondJSON(w, http.StatusOK, response.Envelope{Success: true, Message: "Item deleted"})
}

func (fb *FakeBackend) predict(w http.ResponseWriter, r *http.Request) {
	var req request.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	method := model.PredictionMethod(req.Method)
	if !method.Valid() {
		response.RespondError(w, http.StatusBadRequest, "Invalid method")
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	_, p := fb.owned(r)
	if p == nil {
		response.RespondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}

	required := method.RequiredAlgorithms()
	missing := map[string][]string{}
	for _, ticker := range p.Tickers() {
		for _, a := range required {
			if !fb.trained[a][model.ModelDirName(ticker)] {
				missing[ticker] = append(missing[ticker], string(a))
			}
		}
	}
	if len(missing) > 0 {
		names := make([]string, len(required))
		for i, a := range required {
			names[i] = string(a)
		}
		response.RespondJSON(w, http.StatusBadRequest, response.PredictResponse{
			Envelope:           response.Envelope{Success: false, Error: "Missing trained models"},
			MissingModels:      missing,
			RequiredAlgorithms: names,
		})
		return
	}

	resp := response.PredictResponse{
		Envelope:         response.OK(),
		Method:           method,
		Days:             req.Days,
		StockPredictions: []model.StockPrediction{},
	}
	var current, predicted float64
	for _, item := range p.Items {
		price := item.PurchasePrice * PredictionGrowth
		cv := item.Quantity * item.PurchasePrice
		pv := item.Quantity * price
		current += cv
		predicted += pv
		resp.StockPredictions = append(resp.StockPredictions, model.StockPrediction{
			Ticker:            item.Ticker,
			Quantity:          model.Float(item.Quantity),
			PurchasePrice:     model.Float(item.PurchasePrice),
			PredictedPrice:    model.Float(price),
			CurrentValue:      model.Float(cv),
			PredictedValue:    model.Float(pv),
			ProfitLoss:        model.Float(pv - cv),
			ProfitLossPercent: model.Float(percent(pv-cv, cv)),
		})
	}
	resp.TotalMetrics = &model.TotalMetrics{
		CurrentValue:      model.Float(current),
		PredictedValue:    model.Float(predicted),
		ProfitLoss:        model.Float(predicted - current),
		ProfitLossPercent: model.Float(percent(predicted-current, current)),
	}
	response.RespondJSON(w, http.StatusOK, resp)
}

func percent(delta, base float64) float64 {
	if base == 0 {
		return math.NaN()
	}
	return delta / base * 100
}

func (fb *FakeBackend) algorithm(w http.ResponseWriter, r *http.Request) (model.Algorithm, bool) {
	a := model.Algorithm(chi.URLParam(r, "algorithm"))
	if !a.Valid() {
		response.RespondError(w, http.StatusNotFound, "Not found")
		return "", false
	}
	return a, true
}

func (fb *FakeBackend) train(w http.ResponseWriter, r *http.Request) {
	a, ok := fb.algorithm(w, r)
	if !ok {
		return
	}
	var req request.TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ticker == "" {
		response.RespondError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	fb.MarkTrained(a, req.Ticker)
	response.RespondJSON(w, http.StatusOK, response.Envelope{
		Success: true,
		Message: fmt.Sprintf("%s model trained for %s", strings.ToUpper(string(a)), req.Ticker),
	})
}

func (fb *FakeBackend) forecast(w http.ResponseWriter, r *http.Request) {
	a, ok := fb.algorithm(w, r)
	if !ok {
		return
	}
	ticker := strings.ToUpper(r.URL.Query().Get("ticker"))
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 {
		response.RespondError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}

	fb.mu.Lock()
	trained := fb.trained[a][model.ModelDirName(ticker)]
	fb.mu.Unlock()
	if !trained {
		response.RespondError(w, http.StatusNotFound, fmt.Sprintf("No trained %s model for %s", a, ticker))
		return
	}

	data := &response.ForecastData{Dates: make([]string, days)}
	values := make([]model.Float, days)
	lower := make([]model.Float, days)
	upper := make([]model.Float, days)
	start := time.Date(2025, 5, 23, 0, 0, 0, 0, time.UTC)
	for i := range days {
		data.Dates[i] = start.AddDate(0, 0, i).Format("2006-01-02")
		values[i] = model.Float(100 + float64(i))
		lower[i] = values[i] - 5
		upper[i] = values[i] + 5
	}
	switch a {
	case model.AlgorithmARIMA:
		data.ForecastMean, data.ForecastCILow, data.ForecastCIHigh = values, lower, upper
	case model.AlgorithmProphet:
		data.Forecast, data.ForecastLower, data.ForecastUpper = values, lower, upper
	default:
		data.Forecast = values
	}
	response.RespondJSON(w, http.StatusOK, response.ForecastResponse{Envelope: response.OK(), Data: data})
}

func (fb *FakeBackend) models(w http.ResponseWriter, r *http.Request) {
	a, ok := fb.algorithm(w, r)
	if !ok {
		return
	}
	fb.mu.Lock()
	tickers := make([]string, 0, len(fb.trained[a]))
	for dir := range fb.trained[a] {
		tickers = append(tickers, dir)
	}
	fb.mu.Unlock()
	slices.Sort(tickers)
	response.RespondJSON(w, http.StatusOK, response.ModelsResponse{Envelope: response.OK(), Tickers: tickers})
}
