package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zorpido/pos/internal/domain/menu"
)

type mockMenuRepo struct {
	item    *menu.Item
	getErr  error
	updated *menu.Item
}

func (m *mockMenuRepo) List(_ context.Context) ([]menu.Item, error) { return nil, nil }

func (m *mockMenuRepo) GetByID(_ context.Context, id int64) (*menu.Item, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.item == nil || m.item.ID != id {
		return nil, menu.ErrNotFound
	}
	cp := *m.item
	return &cp, nil
}

func (m *mockMenuRepo) GetBySKU(_ context.Context, _ string) (*menu.Item, error) {
	return nil, menu.ErrNotFound
}

func (m *mockMenuRepo) Update(_ context.Context, item *menu.Item) error {
	m.updated = item
	return nil
}

func testItem() *menu.Item {
	return &menu.Item{
		ID:                7,
		SKU:               "MOMO-01",
		Name:              "Chicken Momo",
		Price:             decimal.RequireFromString("150.00"),
		StockQuantity:     10,
		LowStockThreshold: 5,
		Availability:      menu.Available,
	}
}

func intp(v int) *int { return &v }

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		item      *menu.Item
		adj       Adjustment
		wantErr   error
		wantStock int
		wantAvail menu.Availability
	}{
		{
			name:      "add increments stock",
			item:      testItem(),
			adj:       Adjustment{Action: ActionAdd, Quantity: 5},
			wantStock: 15,
			wantAvail: menu.Available,
		},
		{
			name: "add restores out_of_stock item",
			item: &menu.Item{ID: 7, StockQuantity: 0, Availability: menu.OutOfStock},
			adj:  Adjustment{Action: ActionAdd, Quantity: 3},

			wantStock: 3,
			wantAvail: menu.Available,
		},
		{
			name:    "add zero rejected",
			item:    testItem(),
			adj:     Adjustment{Action: ActionAdd, Quantity: 0},
			wantErr: ErrAddZero,
		},
		{
			name:      "decrease reduces stock",
			item:      testItem(),
			adj:       Adjustment{Action: ActionDecrease, Quantity: 4},
			wantStock: 6,
			wantAvail: menu.Available,
		},
		{
			name:      "decrease to zero flips availability",
			item:      testItem(),
			adj:       Adjustment{Action: ActionDecrease, Quantity: 10},
			wantStock: 0,
			wantAvail: menu.OutOfStock,
		},
		{
			name:    "decrease beyond stock rejected",
			item:    testItem(),
			adj:     Adjustment{Action: ActionDecrease, Quantity: 11},
			wantErr: ErrDecreaseExceeds,
		},
		{
			name:    "decrease zero rejected",
			item:    testItem(),
			adj:     Adjustment{Action: ActionDecrease, Quantity: 0},
			wantErr: ErrDecreaseZero,
		},
		{
			name:      "set overwrites stock",
			item:      testItem(),
			adj:       Adjustment{Action: ActionSet, Quantity: 42},
			wantStock: 42,
			wantAvail: menu.Available,
		},
		{
			name: "set above zero restores availability",
			item: &menu.Item{ID: 7, StockQuantity: 0, Availability: menu.OutOfStock},
			adj:  Adjustment{Action: ActionSet, Quantity: 1},

			wantStock: 1,
			wantAvail: menu.Available,
		},
		{
			name:      "set to zero marks out of stock",
			item:      testItem(),
			adj:       Adjustment{Action: ActionSet, Quantity: 0},
			wantStock: 0,
			wantAvail: menu.OutOfStock,
		},
		{
			name:    "set negative rejected",
			item:    testItem(),
			adj:     Adjustment{Action: ActionSet, Quantity: -1},
			wantErr: ErrNegativeQuantity,
		},
		{
			name:    "unknown action rejected",
			item:    testItem(),
			adj:     Adjustment{Action: "restock", Quantity: 1},
			wantErr: ErrInvalidAction,
		},
		{
			name:    "invalid availability rejected",
			item:    testItem(),
			adj:     Adjustment{Action: ActionAdd, Quantity: 1, Availability: "sold_out"},
			wantErr: ErrInvalidAvail,
		},
		{
			name:      "availability override wins over stock flip",
			item:      testItem(),
			adj:       Adjustment{Action: ActionDecrease, Quantity: 10, Availability: menu.ComingSoon},
			wantStock: 0,
			wantAvail: menu.ComingSoon,
		},
		{
			name:    "negative threshold rejected",
			item:    testItem(),
			adj:     Adjustment{Action: ActionAdd, Quantity: 1, LowThreshold: intp(-1)},
			wantErr: ErrNegativeThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Apply(tt.item, tt.adj)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStock, tt.item.StockQuantity)
			assert.Equal(t, tt.wantAvail, tt.item.Availability)
		})
	}
}

func TestApply_UpdatesThresholdAndPrices(t *testing.T) {
	item := testItem()
	price := decimal.RequireFromString("180.00")
	purchase := decimal.RequireFromString("90.00")

	err := Apply(item, Adjustment{
		Action:        ActionAdd,
		Quantity:      1,
		LowThreshold:  intp(8),
		Price:         &price,
		PurchasePrice: &purchase,
	})

	require.NoError(t, err)
	assert.Equal(t, 8, item.LowStockThreshold)
	assert.True(t, price.Equal(item.Price))
	assert.True(t, purchase.Equal(item.PurchasePrice))
}

func TestService_Adjust(t *testing.T) {
	repo := &mockMenuRepo{item: testItem()}
	svc := NewService(repo)

	res, err := svc.Adjust(context.Background(), 7, Adjustment{Action: ActionDecrease, Quantity: 7})

	require.NoError(t, err)
	assert.Equal(t, 3, res.NewStock)
	assert.Equal(t, menu.Available, res.Availability)
	require.NotNil(t, repo.updated)
	assert.Equal(t, 3, repo.updated.StockQuantity)
}

func TestService_Adjust_ItemNotFound(t *testing.T) {
	svc := NewService(&mockMenuRepo{})

	_, err := svc.Adjust(context.Background(), 404, Adjustment{Action: ActionAdd, Quantity: 1})

	require.ErrorIs(t, err, menu.ErrNotFound)
}

func TestService_Adjust_ValidationLeavesStoreUntouched(t *testing.T) {
	repo := &mockMenuRepo{item: testItem()}
	svc := NewService(repo)

	_, err := svc.Adjust(context.Background(), 7, Adjustment{Action: ActionDecrease, Quantity: 99})

	require.ErrorIs(t, err, ErrDecreaseExceeds)
	assert.Nil(t, repo.updated)
}

func TestTier(t *testing.T) {
	assert.Equal(t, menu.TierOutOfStock, menu.Tier(0, 5))
	assert.Equal(t, menu.TierOutOfStock, menu.Tier(-1, 5))
	assert.Equal(t, menu.TierLow, menu.Tier(3, 5))
	assert.Equal(t, menu.TierLow, menu.Tier(5, 5))
	assert.Equal(t, menu.TierHealthy, menu.Tier(6, 5))
}
