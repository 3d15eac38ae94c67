// Package option provides composable query modifiers for the generic store.
package option

import (
	"fmt"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

type conditionOption struct {
	cond Condition
}

func (o conditionOption) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s %s ?", o.cond.Field, o.cond.Operator), o.cond.Value)
}

func ApplyOperator(cond Condition) QueryOption {
	return conditionOption{cond: cond}
}

// QuerySortBy orders results by Field when the field is allow-listed.
type QuerySortBy struct {
	Allow map[string]bool
	Field string
	Desc  bool
}

type sortOption struct {
	sort QuerySortBy
}

func (o sortOption) Apply(db *gorm.DB) *gorm.DB {
	field := o.sort.Field
	if field == "" {
		field = "created_at"
	}
	if len(o.sort.Allow) > 0 && !o.sort.Allow[field] {
		return db
	}
	dir := "ASC"
	if o.sort.Desc {
		dir = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", field, dir))
}

func WithSortBy(sort QuerySortBy) QueryOption {
	return sortOption{sort: sort}
}

type limitOption struct {
	limit int
}

func (o limitOption) Apply(db *gorm.DB) *gorm.DB {
	if o.limit <= 0 {
		return db
	}
	return db.Limit(o.limit)
}

func WithLimit(limit int) QueryOption {
	return limitOption{limit: limit}
}
