package wire

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitcex/priceladder/internal/book"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestPriceLevel_RoundTrip(t *testing.T) {
	cases := []book.PriceLevel{
		{Side: book.Bid, Price: decimal.RequireFromString("100.25"), Quantity: 500, NumOrders: 3},
		{Side: book.Ask, Price: decimal.RequireFromString("0.00000001"), Quantity: 1, NumOrders: 1},
		{Side: book.Bid, Price: decimal.RequireFromString("-42.5"), Quantity: 10, NumOrders: 2},
		{Side: book.Ask, Price: decimal.RequireFromString("79228162514264337593543950335"), Quantity: 9, NumOrders: 4}, // 2^96-1
		{Side: book.Bid, Price: decimal.RequireFromString("1e5"), Quantity: 7, NumOrders: 1},                          // positive exponent folds to scale 0
	}
	for _, in := range cases {
		buf, err := AppendPriceLevel(nil, in)
		require.NoError(t, err)
		require.Len(t, buf, PriceLevelSize)

		out, err := DecodePriceLevel(buf)
		require.NoError(t, err)
		assert.Equal(t, in.Side, out.Side)
		assert.True(t, in.Price.Equal(out.Price), "price %s round-tripped as %s", in.Price, out.Price)
		assert.Equal(t, in.Quantity, out.Quantity)
		assert.Equal(t, in.NumOrders, out.NumOrders)
	}
}

func TestOrderUpdate_RoundTrip(t *testing.T) {
	in := book.OrderUpdate{
		OrderID:    987654321,
		Side:       book.Ask,
		Price:      decimal.RequireFromString("100.25"),
		Quantity:   400,
		Priority:   17,
		IsOwnOrder: true,
	}
	buf, err := AppendOrderUpdate(nil, in)
	require.NoError(t, err)
	require.Len(t, buf, OrderUpdateSize)

	out, err := DecodeOrderUpdate(buf)
	require.NoError(t, err)
	assert.Equal(t, in.OrderID, out.OrderID)
	assert.Equal(t, in.Side, out.Side)
	assert.True(t, in.Price.Equal(out.Price))
	assert.Equal(t, in.Quantity, out.Quantity)
	assert.Equal(t, in.Priority, out.Priority)
	assert.True(t, out.IsOwnOrder)
}

func TestDecode_ShortBuffer(t *testing.T) {
	_, err := DecodePriceLevel(make([]byte, PriceLevelSize-1))
	assert.ErrorIs(t, err, book.ErrShortRecord)

	_, err = DecodeOrderUpdate(make([]byte, OrderUpdateSize-1))
	assert.ErrorIs(t, err, book.ErrShortRecord)
}

func TestEncodePrice_RejectsOutOfRange(t *testing.T) {
	// 2^96 coefficient does not fit the 96-bit wire field.
	_, err := AppendPriceLevel(nil, book.PriceLevel{
		Side:  book.Bid,
		Price: dec(t, "79228162514264337593543950336"),
	})
	assert.ErrorIs(t, err, book.ErrBadPrice)

	// Scale 29 exceeds the decimal wire format.
	_, err = AppendPriceLevel(nil, book.PriceLevel{
		Side:  book.Bid,
		Price: dec(t, "0.00000000000000000000000000001"),
	})
	assert.ErrorIs(t, err, book.ErrBadPrice)
}

func TestDecodePrice_RejectsBadScale(t *testing.T) {
	buf, err := AppendPriceLevel(nil, book.PriceLevel{Side: book.Bid, Price: dec(t, "1.5"), Quantity: 1})
	require.NoError(t, err)
	buf[1+14] = 29 // scale byte inside the price flags word
	_, err = DecodePriceLevel(buf)
	assert.ErrorIs(t, err, book.ErrBadPrice)
}
