package infra

import (
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// MaxRupiah is the largest amount a numeric(15,0) column holds.
const MaxRupiah int64 = 999_999_999_999_999

// NumericToRupiah reads a numeric(15,0) money column as whole rupiah.
// NULL, fractional and out-of-range values are errors.
func NumericToRupiah(n pgtype.Numeric) (int64, error) {
	d, err := NumericToDecimal(n)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("numeric value %s is not a whole rupiah amount", d.String())
	}
	if d.Abs().GreaterThan(decimal.NewFromInt(MaxRupiah)) {
		return 0, fmt.Errorf("numeric value %s overflows numeric(15,0)", d.String())
	}
	return d.IntPart(), nil
}

// NumericToDecimal converts without losing scale.
func NumericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, fmt.Errorf("numeric value is NULL")
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Zero, fmt.Errorf("numeric value is not finite")
	}
	if n.Int == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

// RupiahToNumeric writes whole rupiah to a numeric(15,0) column.
func RupiahToNumeric(v int64) pgtype.Numeric {
	return pgtype.Numeric{
		Int:              big.NewInt(v),
		Exp:              0,
		InfinityModifier: pgtype.Finite,
		Valid:            true,
	}
}
