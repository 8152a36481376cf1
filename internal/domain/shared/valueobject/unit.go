package valueobject

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Dimension is the physical dimension a canonical unit measures.
// Quantities only convert within one dimension.
type Dimension string

const (
	DimensionMass    Dimension = "mass"
	DimensionVolume  Dimension = "volume"
	DimensionCount   Dimension = "count"
	DimensionPack    Dimension = "pack"
	DimensionLength  Dimension = "length"
	DimensionUnknown Dimension = ""
)

// Canonical unit codes
const (
	UnitCodeG     = "g"
	UnitCodeKG    = "kg"
	UnitCodeML    = "ml"
	UnitCodeL     = "l"
	UnitCodeCount = "count"
	UnitCodePack  = "pack"
	UnitCodeM     = "m"
)

// Unit is an immutable canonical unit of measurement.
// factor is how many of the dimension's smallest unit one of this unit equals (1 kg = 1000 g).
type Unit struct {
	code      string
	dimension Dimension
	factor    decimal.Decimal
}

var thousand = decimal.NewFromInt(1000)

var canonicalUnits = map[string]Unit{
	UnitCodeG:     {code: UnitCodeG, dimension: DimensionMass, factor: decimal.NewFromInt(1)},
	UnitCodeKG:    {code: UnitCodeKG, dimension: DimensionMass, factor: thousand},
	UnitCodeML:    {code: UnitCodeML, dimension: DimensionVolume, factor: decimal.NewFromInt(1)},
	UnitCodeL:     {code: UnitCodeL, dimension: DimensionVolume, factor: thousand},
	UnitCodeCount: {code: UnitCodeCount, dimension: DimensionCount, factor: decimal.NewFromInt(1)},
	UnitCodePack:  {code: UnitCodePack, dimension: DimensionPack, factor: decimal.NewFromInt(1)},
	UnitCodeM:     {code: UnitCodeM, dimension: DimensionLength, factor: decimal.NewFromInt(1)},
}

// unitSynonyms maps lookup keys (see lookupKey) to canonical codes.
var unitSynonyms = buildSynonyms(map[string][]string{
	UnitCodeG: {
		"g", "gr", "grs", "gram", "grams", "gramme", "gm",
		"گرم", "گر",
	},
	UnitCodeKG: {
		"kg", "kgs", "kilo", "kilos", "kilogram", "kilograms", "kilogramme",
		"کیلو", "کیلوگرم", "کیلو گرم",
	},
	UnitCodeML: {
		"ml", "mls", "milliliter", "millilitre", "milliliters", "millilitres", "cc",
		"میلی لیتر", "میلی‌لیتر", "میلیلیتر", "سی سی", "سی‌سی",
	},
	UnitCodeL: {
		"l", "lt", "ltr", "lit", "liter", "litre", "liters", "litres",
		"لیتر",
	},
	UnitCodeCount: {
		"count", "pcs", "pc", "piece", "pieces", "unit", "units", "ea", "each",
		"عدد", "دانه", "تا",
	},
	UnitCodePack: {
		"pack", "packs", "package", "packet", "pkg", "box",
		"بسته", "پک", "جعبه",
	},
	UnitCodeM: {
		"m", "meter", "metre", "meters", "metres",
		"متر",
	},
})

func buildSynonyms(table map[string][]string) map[string]string {
	out := make(map[string]string)
	for code, labels := range table {
		out[lookupKey(code)] = code
		for _, label := range labels {
			out[lookupKey(label)] = code
		}
	}
	return out
}

// arabicVariants unifies Arabic letter forms with their Persian equivalents.
var arabicVariants = strings.NewReplacer(
	"ي", "ی",
	"ى", "ی",
	"ك", "ک",
	"ة", "ه",
)

// foldLabel trims, NFC-normalizes, case-folds and unifies letter variants.
func foldLabel(label string) string {
	s := strings.TrimSpace(label)
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	return arabicVariants.Replace(s)
}

// lookupKey drops separators so "کیلو گرم", "کیلوگرم" and "kilo-gram" share one key.
func lookupKey(label string) string {
	s := foldLabel(label)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u200c', '\u200f', '.', '-', '_':
			return -1
		}
		return r
	}, s)
}

// LookupUnit resolves a free-text label to a canonical Unit.
// It reports false for labels that are not in the synonym table.
func LookupUnit(label string) (Unit, bool) {
	code, ok := unitSynonyms[lookupKey(label)]
	if !ok {
		return Unit{}, false
	}
	return canonicalUnits[code], true
}

// NormalizeUnit maps a free-text unit label to its canonical code.
// Unrecognized labels are returned in folded form and act as their own canonical unit.
func NormalizeUnit(label string) string {
	if u, ok := LookupUnit(label); ok {
		return u.code
	}
	return foldLabel(label)
}

// Convert converts quantity from one unit label to another.
// A missing unit takes the other side's unit; both missing is identity.
// Conversion across dimensions, or involving unrecognized units, returns quantity unchanged.
func Convert(quantity decimal.Decimal, from, to string) decimal.Decimal {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}
	if from == "" {
		return quantity
	}

	src, okSrc := LookupUnit(from)
	dst, okDst := LookupUnit(to)
	if !okSrc || !okDst || src.dimension != dst.dimension || src.code == dst.code {
		return quantity
	}
	return quantity.Mul(src.factor).Div(dst.factor)
}

// SameDimension reports whether a conversion between the two labels is meaningful.
// Identical normalized labels always share a dimension, even when unrecognized.
func SameDimension(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return true
	}
	if NormalizeUnit(a) == NormalizeUnit(b) {
		return true
	}
	ua, okA := LookupUnit(a)
	ub, okB := LookupUnit(b)
	return okA && okB && ua.dimension == ub.dimension
}

// DimensionOf returns the dimension of a label, or DimensionUnknown
func DimensionOf(label string) Dimension {
	if u, ok := LookupUnit(label); ok {
		return u.dimension
	}
	return DimensionUnknown
}

// Code returns the canonical unit code
func (u Unit) Code() string {
	return u.code
}

// Dimension returns the physical dimension of the unit
func (u Unit) Dimension() Dimension {
	return u.dimension
}

// Factor returns how many of the dimension's smallest unit one of this unit equals
func (u Unit) Factor() decimal.Decimal {
	return u.factor
}

// IsZero returns true for the zero-value Unit
func (u Unit) IsZero() bool {
	return u.code == ""
}

// String returns the canonical code
func (u Unit) String() string {
	return u.code
}
