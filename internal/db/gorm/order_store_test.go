// Package gorm provides GORM-based database operations for usageref.
package gorm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/usageref/internal/db"
	"github.com/thebtf/usageref/pkg/models"
)

type orderFixture struct {
	members  *MemberStore
	products *ProductStore
	orders   *OrderStore
	queries  *QueryStore
}

func testOrderStores(t *testing.T) (*orderFixture, func()) {
	t.Helper()
	store, cleanup := testStore(t)
	return &orderFixture{
		members:  NewMemberStore(store),
		products: NewProductStore(store),
		orders:   NewOrderStore(store),
		queries:  NewQueryStore(store),
	}, cleanup
}

func mustProduct(t *testing.T, ps *ProductStore, name string) *models.Product {
	t.Helper()
	p, err := models.NewProduct(0, name)
	require.NoError(t, err)
	require.NoError(t, ps.Persist(context.Background(), p))
	return p
}

func TestProductStore_PersistAndFind(t *testing.T) {
	f, cleanup := testOrderStores(t)
	defer cleanup()

	ctx := context.Background()
	product := mustProduct(t, f.products, "book")
	assert.Greater(t, product.ID(), int64(0))

	found, err := f.products.Find(ctx, product.ID())
	require.NoError(t, err)
	assert.Equal(t, "book", found.Name())

	byName, err := f.products.FindByName(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, product.ID(), byName.ID())

	_, err = f.products.Find(ctx, 999)
	assert.ErrorIs(t, err, db.ErrNotFound)

	assert.ErrorIs(t, f.products.Persist(ctx, product), models.ErrConflict)
}

func TestOrderStore_PersistAndFind(t *testing.T) {
	f, cleanup := testOrderStores(t)
	defer cleanup()

	ctx := context.Background()
	member := mustMember(t, f.members, "memberA", 10)
	product := mustProduct(t, f.products, "book")

	order, err := models.NewOrders(0, member, product)
	require.NoError(t, err)
	require.NoError(t, f.orders.Persist(ctx, order))
	assert.Greater(t, order.ID(), int64(0))

	found, err := f.orders.Find(ctx, order.ID())
	require.NoError(t, err)
	assert.True(t, found.Member().Equal(member))
	assert.Equal(t, "book", found.Product().Name())

	_, err = f.orders.Find(ctx, 999)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestOrderStore_Persist_Rejects(t *testing.T) {
	f, cleanup := testOrderStores(t)
	defer cleanup()

	ctx := context.Background()
	member := mustMember(t, f.members, "memberA", 10)
	product := mustProduct(t, f.products, "book")

	unsavedProduct, err := models.NewProduct(0, "pen")
	require.NoError(t, err)
	order, err := models.NewOrders(0, member, unsavedProduct)
	require.NoError(t, err)
	assert.ErrorIs(t, f.orders.Persist(ctx, order), models.ErrInvalidArgument)

	first, err := models.NewOrders(0, member, product)
	require.NoError(t, err)
	require.NoError(t, f.orders.Persist(ctx, first))

	second, err := models.NewOrders(0, member, product)
	require.NoError(t, err)
	assert.ErrorIs(t, f.orders.Persist(ctx, second), models.ErrConflict, "a product is ordered at most once")
}

func TestOrderStore_ListByMember(t *testing.T) {
	f, cleanup := testOrderStores(t)
	defer cleanup()

	ctx := context.Background()
	member := mustMember(t, f.members, "memberA", 10)
	other := mustMember(t, f.members, "memberB", 10)

	for _, name := range []string{"book", "pen"} {
		o, err := models.NewOrders(0, member, mustProduct(t, f.products, name))
		require.NoError(t, err)
		require.NoError(t, f.orders.Persist(ctx, o))
	}
	o, err := models.NewOrders(0, other, mustProduct(t, f.products, "cup"))
	require.NoError(t, err)
	require.NoError(t, f.orders.Persist(ctx, o))

	orders, err := f.orders.ListByMember(ctx, member.ID())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "book", orders[0].Product().Name())
	assert.Equal(t, "pen", orders[1].Product().Name())

	lines, err := f.queries.OrderLines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, models.OrderLine{OrderID: o.ID(), MemberName: "memberB", ProductName: "cup"}, lines[2])
}

func TestMemberStore_Remove_DeletesOrders(t *testing.T) {
	f, cleanup := testOrderStores(t)
	defer cleanup()

	ctx := context.Background()
	member := mustMember(t, f.members, "memberA", 10)
	o, err := models.NewOrders(0, member, mustProduct(t, f.products, "book"))
	require.NoError(t, err)
	require.NoError(t, f.orders.Persist(ctx, o))

	require.NoError(t, f.members.Remove(ctx, member.ID()))

	_, err = f.orders.Find(ctx, o.ID())
	assert.ErrorIs(t, err, db.ErrNotFound)
}
