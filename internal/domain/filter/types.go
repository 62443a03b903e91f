// Package filter describes field predicates applied to list queries.
package filter

// ComparisonType is the operator of a single predicate.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	Less           ComparisonType = "lt"
	LessOrEqual    ComparisonType = "lte"
	Greater        ComparisonType = "gt"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	Contains       ComparisonType = "contains" // ILIKE %val%
	YearEquals     ComparisonType = "year"     // EXTRACT(YEAR FROM field) = val
	IsNull         ComparisonType = "null"
	IsNotNull      ComparisonType = "not_null"
)

// Item is one predicate of a list query.
type Item struct {
	Field    string         `json:"field"`    // column name (snake_case)
	Operator ComparisonType `json:"operator"`
	Value    any            `json:"value"`
}

// Eq builds an equality predicate.
func Eq(field string, value any) Item {
	return Item{Field: field, Operator: Equal, Value: value}
}

// Gte builds a lower-bound predicate.
func Gte(field string, value any) Item {
	return Item{Field: field, Operator: GreaterOrEqual, Value: value}
}

// Lte builds an upper-bound predicate.
func Lte(field string, value any) Item {
	return Item{Field: field, Operator: LessOrEqual, Value: value}
}
