package repository_test

import (
	"context"
	"testing"

	"eshop/internal/db/dbtest"
	"eshop/internal/domain"
	"eshop/internal/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepoRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepos(dbtest.New(t))

	first := &domain.User{Username: "alice", Email: "Alice@Example.com", PasswordHash: "x", Role: domain.RoleCustomer}
	require.NoError(t, repos.Users.Create(ctx, first))
	assert.Equal(t, "alice@example.com", first.Email)

	dup := &domain.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "x", Role: domain.RoleCustomer}
	err := repos.Users.Create(ctx, dup)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	found, err := repos.Users.GetByEmail(ctx, " ALICE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = repos.Users.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProductRepoListFilters(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repos := repository.NewRepos(gdb)

	// Laptop stays at 10, Headphones drops to low stock, Tablet sells out
	require.NoError(t, repos.Products.DeductStock(ctx, 4, 10))
	require.NoError(t, repos.Products.DeductStock(ctx, 6, 20))

	low, total, err := repos.Products.List(ctx, repository.ProductFilter{Page: 1, PageSize: 20, Stock: repository.StockLow})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Headphones", low[0].Name)

	out, _, err := repos.Products.List(ctx, repository.ProductFilter{Page: 1, PageSize: 20, Stock: repository.StockOutOfStock})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Tablet", out[0].Name)

	byPrice, _, err := repos.Products.List(ctx, repository.ProductFilter{Page: 1, PageSize: 2, Sort: "price_desc"})
	require.NoError(t, err)
	require.Len(t, byPrice, 2)
	assert.Equal(t, "Laptop", byPrice[0].Name)
	assert.Equal(t, "Smartphone", byPrice[1].Name)

	search, total, err := repos.Products.List(ctx, repository.ProductFilter{Page: 1, PageSize: 20, Query: "KEY"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Mechanical Keyboard", search[0].Name)
}

func TestProductRepoDeductStockNeverNegative(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepos(dbtest.New(t))

	err := repos.Products.DeductStock(ctx, 1, 11)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	require.NoError(t, repos.Products.DeductStock(ctx, 1, 10))
	p, err := repos.Products.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)

	err = repos.Products.DeductStock(ctx, 1, 1)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
}

func TestProductRepoSoftDelete(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepos(dbtest.New(t))

	require.NoError(t, repos.Products.Delete(ctx, 2))
	_, err := repos.Products.GetByID(ctx, 2)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	products, err := repos.Products.GetByIDs(ctx, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	assert.True(t, errors.Is(repos.Products.Delete(ctx, 2), domain.ErrNotFound))
}

func TestProductRepoUpdate(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepos(dbtest.New(t))

	p, err := repos.Products.GetByID(ctx, 3)
	require.NoError(t, err)
	p.Price = decimal.RequireFromString("89.50")
	p.StockQuantity = 0
	p.Category = "Peripherals"
	require.NoError(t, repos.Products.Update(ctx, p))

	got, err := repos.Products.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("89.5")))
	assert.Equal(t, 0, got.StockQuantity)
	assert.Equal(t, "Peripherals", got.Category)

	missing := &domain.Product{ID: 999, Name: "Ghost", Price: decimal.NewFromInt(1)}
	assert.True(t, errors.Is(repos.Products.Update(ctx, missing), domain.ErrNotFound))
}

func TestOrderRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepos(dbtest.New(t))

	order := &domain.Order{UserID: 1, Total: decimal.RequireFromString("59.98"), Status: domain.OrderStatusPending}
	items := []domain.OrderItem{{ProductID: 2, Quantity: 2, PriceAtPurchase: decimal.RequireFromString("29.99")}}
	require.NoError(t, repos.Orders.Create(ctx, order, items))
	require.NotZero(t, order.ID)
	require.Len(t, order.Items, 1)

	_, err := repos.Orders.GetForUser(ctx, order.ID, 42)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, repos.Orders.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped))
	require.NoError(t, repos.Orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPending))
	err = repos.Orders.UpdateStatus(ctx, order.ID, "lost")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.True(t, errors.Is(repos.Orders.UpdateStatus(ctx, 999, domain.OrderStatusPaid), domain.ErrNotFound))

	got, err := repos.Orders.GetForUser(ctx, order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.True(t, got.ItemsTotal().Equal(got.Total))

	pending, total, err := repos.Orders.List(ctx, repository.OrderFilter{Page: 1, PageSize: 20, Status: domain.OrderStatusPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, pending, 1)
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	tm := repository.NewTxManager(gdb)
	boom := errors.New("boom")

	err := tm.Execute(ctx, func(repos *repository.Repos) error {
		require.NoError(t, repos.Products.DeductStock(ctx, 1, 5))
		return boom
	})
	assert.True(t, errors.Is(err, boom))

	p, err := repository.NewProductRepo(gdb).GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, p.StockQuantity)
}

func TestTxManagerRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	tm := repository.NewTxManager(gdb)

	assert.Panics(t, func() {
		_ = tm.Execute(ctx, func(repos *repository.Repos) error {
			_ = repos.Products.DeductStock(ctx, 1, 5)
			panic("boom")
		})
	})

	p, err := repository.NewProductRepo(gdb).GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, p.StockQuantity)
}
