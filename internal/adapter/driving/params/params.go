// Package params defines and validates the request parameters shared by the
// REST and web adapters.
package params

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	notBlankTag    = "notblank"
	stateNameTag   = "statename"
	stockSymbolTag = "stocksymbol"
	rgbColorTag    = "rgbcolor"

	stateNameRe   = regexp.MustCompile(`^[\p{L} .'\-]+$`)
	stockSymbolRe = regexp.MustCompile(`^[A-Za-z0-9.^\-]{1,12}$`)
	rgbColorRe    = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation(stateNameTag, func(fl validator.FieldLevel) bool {
		return stateNameRe.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation(stockSymbolTag, func(fl validator.FieldLevel) bool {
		return stockSymbolRe.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation(rgbColorTag, func(fl validator.FieldLevel) bool {
		return rgbColorRe.MatchString(fl.Field().String())
	})

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, stateNameTag, stockSymbolTag, rgbColorTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case stateNameTag:
		return fe.Field() + " must be a state name"
	case stockSymbolTag:
		return fe.Field() + " must be a ticker symbol such as PFE"
	case rgbColorTag:
		return fe.Field() + " must be a color such as #1f77b4"
	default:
		return fe.Field() + " is invalid"
	}
}

// ValidationError reports every invalid field by its JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

// Validate checks v against its validate tags and returns a *ValidationError
// when any field is invalid.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating %T: %w", v, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(translator)
	}
	return &ValidationError{Fields: fields}
}

// Periods lists the accepted stock history periods.
var Periods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// Dashboard selects the dashboard state and stock.
type Dashboard struct {
	State  string `json:"state" validate:"omitempty,max=64,statename"`
	Symbol string `json:"symbol" validate:"omitempty,stocksymbol"`
	Period string `json:"period" validate:"omitempty,oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
}

// Cities selects the state of a city table.
type Cities struct {
	State string `json:"state" validate:"omitempty,max=64,statename"`
}

// Stock selects a price history.
type Stock struct {
	Symbol string `json:"symbol" validate:"required,stocksymbol"`
	Period string `json:"period" validate:"omitempty,oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
}

// Chart selects how a series is drawn.
type Chart struct {
	Kind  string `json:"kind" validate:"omitempty,oneof=line area bar"`
	Color string `json:"color" validate:"omitempty,rgbcolor"`
}

// Credential is the body of a credential update.
type Credential struct {
	APIKey string `json:"api_key" validate:"required,notblank,max=256"`
}

// DashboardFrom reads and validates Dashboard parameters from a query string.
func DashboardFrom(q url.Values) (Dashboard, error) {
	p := Dashboard{
		State:  strings.TrimSpace(q.Get("state")),
		Symbol: strings.TrimSpace(q.Get("symbol")),
		Period: strings.TrimSpace(q.Get("period")),
	}
	return p, Validate(p)
}

// CitiesFrom reads and validates Cities parameters from a query string.
func CitiesFrom(q url.Values) (Cities, error) {
	p := Cities{State: strings.TrimSpace(q.Get("state"))}
	return p, Validate(p)
}

// StockFrom reads and validates Stock parameters from a query string.
func StockFrom(q url.Values) (Stock, error) {
	p := Stock{
		Symbol: strings.TrimSpace(q.Get("symbol")),
		Period: strings.TrimSpace(q.Get("period")),
	}
	return p, Validate(p)
}

// ChartFrom reads and validates Chart parameters from a query string.
func ChartFrom(q url.Values) (Chart, error) {
	p := Chart{
		Kind:  strings.TrimSpace(q.Get("kind")),
		Color: strings.TrimSpace(q.Get("color")),
	}
	return p, Validate(p)
}
