// Package wire implements the fixed-layout binary market-data records.
//
// Layouts are little-endian with no padding:
//
//	PriceLevel  [Side:1][Price:16][Quantity:8][NumOrders:4]            = 29 bytes
//	OrderUpdate [OrderId:8][Side:1][Price:16][Quantity:8][Priority:8][IsOwnOrder:1] = 42 bytes
//
// Price is a 128-bit decimal in the classic lo/mid/hi/flags layout: a 96-bit
// unsigned coefficient in three little-endian 32-bit words, then a flags word
// whose bits 16..23 hold the scale (0..28) and bit 31 the sign.
package wire

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/orbitcex/priceladder/internal/book"
)

const (
	// PriceLevelSize is the byte length of one aggregated level record.
	PriceLevelSize = 29
	// OrderUpdateSize is the byte length of one per-order record.
	OrderUpdateSize = 42

	priceSize = 16
	maxScale  = 28
)

var maxCoefficient = new(big.Int).Lsh(big.NewInt(1), 96) // exclusive 96-bit bound

// DecodePriceLevel parses one 29-byte aggregated level record.
func DecodePriceLevel(buf []byte) (book.PriceLevel, error) {
	if len(buf) < PriceLevelSize {
		return book.PriceLevel{}, fmt.Errorf("%w: price level needs %d bytes, have %d",
			book.ErrShortRecord, PriceLevelSize, len(buf))
	}
	price, err := decodePrice(buf[1:17])
	if err != nil {
		return book.PriceLevel{}, err
	}
	return book.PriceLevel{
		Side:      decodeSide(buf[0]),
		Price:     price,
		Quantity:  int64(binary.LittleEndian.Uint64(buf[17:25])),
		NumOrders: int32(binary.LittleEndian.Uint32(buf[25:29])),
	}, nil
}

// AppendPriceLevel appends the 29-byte encoding of lvl to dst.
func AppendPriceLevel(dst []byte, lvl book.PriceLevel) ([]byte, error) {
	var price [priceSize]byte
	if err := encodePrice(price[:], lvl.Price); err != nil {
		return dst, err
	}
	dst = append(dst, encodeSide(lvl.Side))
	dst = append(dst, price[:]...)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(lvl.Quantity))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(lvl.NumOrders))
	return dst, nil
}

// DecodeOrderUpdate parses one 42-byte per-order record.
func DecodeOrderUpdate(buf []byte) (book.OrderUpdate, error) {
	if len(buf) < OrderUpdateSize {
		return book.OrderUpdate{}, fmt.Errorf("%w: order update needs %d bytes, have %d",
			book.ErrShortRecord, OrderUpdateSize, len(buf))
	}
	price, err := decodePrice(buf[9:25])
	if err != nil {
		return book.OrderUpdate{}, err
	}
	return book.OrderUpdate{
		OrderID:    binary.LittleEndian.Uint64(buf[0:8]),
		Side:       decodeSide(buf[8]),
		Price:      price,
		Quantity:   int64(binary.LittleEndian.Uint64(buf[25:33])),
		Priority:   binary.LittleEndian.Uint64(buf[33:41]),
		IsOwnOrder: buf[41] != 0,
	}, nil
}

// AppendOrderUpdate appends the 42-byte encoding of u to dst.
func AppendOrderUpdate(dst []byte, u book.OrderUpdate) ([]byte, error) {
	var price [priceSize]byte
	if err := encodePrice(price[:], u.Price); err != nil {
		return dst, err
	}
	dst = binary.LittleEndian.AppendUint64(dst, u.OrderID)
	dst = append(dst, encodeSide(u.Side))
	dst = append(dst, price[:]...)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(u.Quantity))
	dst = binary.LittleEndian.AppendUint64(dst, u.Priority)
	if u.IsOwnOrder {
		dst = append(dst, 1)
	} else {
		dst = append(dst, 0)
	}
	return dst, nil
}

func decodeSide(b byte) book.Side {
	if b == 0 {
		return book.Bid
	}
	return book.Ask
}

func encodeSide(s book.Side) byte {
	if s == book.Bid {
		return 0
	}
	return 1
}

// decodePrice reads the 16-byte lo/mid/hi/flags decimal.
func decodePrice(buf []byte) (decimal.Decimal, error) {
	lo := binary.LittleEndian.Uint32(buf[0:4])
	mid := binary.LittleEndian.Uint32(buf[4:8])
	hi := binary.LittleEndian.Uint32(buf[8:12])
	flags := binary.LittleEndian.Uint32(buf[12:16])

	scale := (flags >> 16) & 0xFF
	if scale > maxScale {
		return decimal.Decimal{}, fmt.Errorf("%w: scale %d", book.ErrBadPrice, scale)
	}
	coef := new(big.Int).SetUint64(uint64(hi))
	coef.Lsh(coef, 64)
	coef.Or(coef, new(big.Int).SetUint64(uint64(mid)<<32|uint64(lo)))
	if flags&0x8000_0000 != 0 {
		coef.Neg(coef)
	}
	return decimal.NewFromBigInt(coef, -int32(scale)), nil
}

// encodePrice writes d into the 16-byte lo/mid/hi/flags layout. Prices whose
// coefficient does not fit in 96 bits, or whose scale exceeds 28, are rejected.
func encodePrice(buf []byte, d decimal.Decimal) error {
	scale := -d.Exponent()
	coef := new(big.Int).Set(d.Coefficient())
	if scale < 0 {
		// Positive exponents fold into the coefficient; wire scale is 0..28.
		coef.Mul(coef, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-scale)), nil))
		scale = 0
	}
	if scale > maxScale {
		return fmt.Errorf("%w: scale %d", book.ErrBadPrice, scale)
	}
	neg := coef.Sign() < 0
	if neg {
		coef.Neg(coef)
	}
	if coef.Cmp(maxCoefficient) >= 0 {
		return fmt.Errorf("%w: coefficient exceeds 96 bits", book.ErrBadPrice)
	}

	words := coef.Bits()
	var lo64, hi32 uint64
	// big.Word is 64-bit on every platform we build for.
	if len(words) > 0 {
		lo64 = uint64(words[0])
	}
	if len(words) > 1 {
		hi32 = uint64(words[1])
	}
	flags := uint32(scale) << 16
	if neg {
		flags |= 0x8000_0000
	}
	binary.LittleEndian.PutUint32(buf[0:4], uint32(lo64))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(lo64>>32))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(hi32))
	binary.LittleEndian.PutUint32(buf[12:16], flags)
	return nil
}
