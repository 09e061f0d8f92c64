package testutil

import (
	"testing"

	"github.com/Segevolp/AlgoTrade/internal/model"
)

// PortfolioBuilder provides a fluent interface for seeding portfolios into a FakeBackend.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, fb, "alice")
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Tech").
//	    WithItem("AAPL", 10, 150.5).
//	    Build(t, fb, "alice")
type PortfolioBuilder struct {
	ID        string
	Name      string
	CreatedAt string
	Items     []model.PortfolioItem
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		Name:  MakePortfolioName("Test Portfolio"),
		Items: []model.PortfolioItem{},
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// WithCreatedAt sets the creation timestamp as the backend would render it.
func (b *PortfolioBuilder) WithCreatedAt(createdAt string) *PortfolioBuilder {
	b.CreatedAt = createdAt
	return b
}

// WithItem adds a holding.
func (b *PortfolioBuilder) WithItem(ticker string, quantity, purchasePrice float64) *PortfolioBuilder {
	b.Items = append(b.Items, model.PortfolioItem{
		Ticker:        ticker,
		Quantity:      quantity,
		PurchasePrice: purchasePrice,
	})
	return b
}

// Model returns the portfolio without seeding it, for tests that need a plain value.
func (b *PortfolioBuilder) Model() model.Portfolio {
	items := make([]model.PortfolioItem, len(b.Items))
	copy(items, b.Items)
	return model.Portfolio{
		ID:        model.ID(b.ID),
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
		Items:     items,
	}
}

// Build seeds the portfolio into fb for owner and returns it with server-assigned ids.
func (b *PortfolioBuilder) Build(t *testing.T, fb *FakeBackend, owner string) model.Portfolio {
	t.Helper()
	return fb.SeedPortfolio(owner, b.Model())
}

// Convenience functions

// CreatePortfolio seeds a portfolio with the given name and no items.
//
// Example usage:
//
//	portfolio := testutil.CreatePortfolio(t, fb, "alice", "My Portfolio")
func CreatePortfolio(t *testing.T, fb *FakeBackend, owner, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Build(t, fb, owner)
}

// CreatePortfolios seeds count portfolios with unique names, in order.
func CreatePortfolios(t *testing.T, fb *FakeBackend, owner string, count int) []model.Portfolio {
	t.Helper()

	portfolios := make([]model.Portfolio, count)
	for i := range count {
		portfolios[i] = NewPortfolio().Build(t, fb, owner)
	}
	return portfolios
}

// UserBuilder provides a fluent interface for creating accounts on a FakeBackend.
type UserBuilder struct {
	Username string
	Email    string
	Password string
}

// NewUser creates a UserBuilder with a unique username.
func NewUser() *UserBuilder {
	username := "user_" + randomAlphanumeric(6)
	return &UserBuilder{
		Username: username,
		Email:    username + "@example.com",
		Password: "password-" + randomAlphanumeric(8),
	}
}

// WithUsername sets a custom username.
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.Username = username
	return b
}

// WithPassword sets a custom password.
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.Password = password
	return b
}

// Build creates the account and returns the credentials that log into it.
func (b *UserBuilder) Build(t *testing.T, fb *FakeBackend) model.Credentials {
	t.Helper()
	fb.AddUser(b.Username, b.Email, b.Password)
	return model.Credentials{Username: b.Username, Password: b.Password}
}
