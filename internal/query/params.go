package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Order is the direction of a sort
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Built-in sort fields. Any nutrient code from the taxonomy is also a valid
// sort field.
const (
	SortID            = "id"
	SortName          = "name"
	SortFoodGroup     = "food_group"
	SortFoodGroupCode = "food_group_code"
)

// Query string parameter names
const (
	ParamQ             = "q"
	ParamCategory      = "category"
	ParamNutrient      = "nutrient"
	ParamFoodGroupCode = "food_group_code"
	ParamFoodGroup     = "food_group"
	ParamSort          = "sort"
	ParamOrder         = "order"
	ParamLimit         = "limit"
	ParamOffset        = "offset"
)

// Limits bounds the page size of a search
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits is used when no configuration is given
var DefaultLimits = Limits{Default: 50, Max: 500}

// Normalize fills in missing values and keeps Default within Max
func (l Limits) Normalize() Limits {
	if l.Max <= 0 {
		l.Max = DefaultLimits.Max
	}
	if l.Default <= 0 || l.Default > l.Max {
		l.Default = min(DefaultLimits.Default, l.Max)
	}
	return l
}

// Params is a typed search request. A nil filter means the filter is not
// applied.
type Params struct {
	Q             *string
	Category      *string
	Nutrient      *string
	FoodGroupCode *string
	FoodGroup     *string
	Sort          string
	Order         Order
	Limit         int
	Offset        int
}

// NewParams returns Params with no filters, sorted by id ascending
func NewParams(limits Limits) Params {
	return Params{
		Sort:  SortID,
		Order: OrderAsc,
		Limit: limits.Normalize().Default,
	}
}

// ParseParams converts raw query string values into Params. Empty values are
// treated as absent. A limit or offset that is not a number, a limit outside
// 1..Max, a negative offset, or an order other than asc/desc is rejected with
// an *InvalidParamError.
func ParseParams(values url.Values, limits Limits) (Params, error) {
	limits = limits.Normalize()
	p := NewParams(limits)

	p.Q = optional(values, ParamQ)
	p.Category = optional(values, ParamCategory)
	p.Nutrient = optional(values, ParamNutrient)
	p.FoodGroupCode = optional(values, ParamFoodGroupCode)
	p.FoodGroup = optional(values, ParamFoodGroup)

	if sort := optional(values, ParamSort); sort != nil {
		p.Sort = *sort
	}

	if order := optional(values, ParamOrder); order != nil {
		o, err := ParseOrder(*order)
		if err != nil {
			return Params{}, err
		}
		p.Order = o
	}

	if raw := optional(values, ParamLimit); raw != nil {
		limit, err := strconv.Atoi(*raw)
		if err != nil {
			return Params{}, &InvalidParamError{Param: ParamLimit, Value: *raw, Reason: "must be an integer"}
		}
		if limit <= 0 {
			return Params{}, &InvalidParamError{Param: ParamLimit, Value: *raw, Reason: "must be greater than zero"}
		}
		if limit > limits.Max {
			return Params{}, &InvalidParamError{Param: ParamLimit, Value: *raw, Reason: "must be at most " + strconv.Itoa(limits.Max)}
		}
		p.Limit = limit
	}

	if raw := optional(values, ParamOffset); raw != nil {
		offset, err := strconv.Atoi(*raw)
		if err != nil {
			return Params{}, &InvalidParamError{Param: ParamOffset, Value: *raw, Reason: "must be an integer"}
		}
		if offset < 0 {
			return Params{}, &InvalidParamError{Param: ParamOffset, Value: *raw, Reason: "must not be negative"}
		}
		p.Offset = offset
	}

	return p, nil
}

// ParseOrder accepts asc or desc in any case
func ParseOrder(raw string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(raw))) {
	case OrderAsc:
		return OrderAsc, nil
	case OrderDesc:
		return OrderDesc, nil
	default:
		return "", &InvalidParamError{Param: ParamOrder, Value: raw, Reason: "must be asc or desc"}
	}
}

// Filters returns the applied filters keyed by parameter name
func (p Params) Filters() map[string]string {
	filters := make(map[string]string)
	for name, value := range map[string]*string{
		ParamQ:             p.Q,
		ParamCategory:      p.Category,
		ParamNutrient:      p.Nutrient,
		ParamFoodGroupCode: p.FoodGroupCode,
		ParamFoodGroup:     p.FoodGroup,
	} {
		if value != nil {
			filters[name] = *value
		}
	}
	return filters
}

// validate checks the parts of Params that Search relies on
func (p Params) validate() error {
	if p.Limit <= 0 {
		return &InvalidParamError{Param: ParamLimit, Value: strconv.Itoa(p.Limit), Reason: "must be greater than zero"}
	}
	if p.Offset < 0 {
		return &InvalidParamError{Param: ParamOffset, Value: strconv.Itoa(p.Offset), Reason: "must not be negative"}
	}
	if p.Order != "" && p.Order != OrderAsc && p.Order != OrderDesc {
		return &InvalidParamError{Param: ParamOrder, Value: string(p.Order), Reason: "must be asc or desc"}
	}
	return nil
}

// StringPtr returns a pointer to s, or nil when s is blank
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optional(values url.Values, key string) *string {
	return StringPtr(values.Get(key))
}
