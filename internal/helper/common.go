package helper

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"
)

type Pagination[T any] struct {
	Page  int  `json:"page"`
	Size  int  `json:"size"`
	Total *int `json:"total"`
	Items []T  `json:"items"`
}

func GetPagination[T any](c fiber.Ctx) Pagination[T] {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	size, _ := strconv.Atoi(c.Query("size", "50"))
	if size < 1 {
		size = 1
	} else if size > 100 {
		size = 100
	}

	return Pagination[T]{
		Page:  page,
		Size:  size,
		Total: nil,
		Items: []T{},
	}
}

// Fill sets Total and the page of items taken from all.
func (p *Pagination[T]) Fill(all []T) {
	total := len(all)
	p.Total = &total

	if p.Size < 1 || p.Page < 1 || p.Page-1 >= (total+p.Size-1)/p.Size {
		p.Items = []T{}
		return
	}
	start := (p.Page - 1) * p.Size
	end := min(start+p.Size, total)
	p.Items = all[start:end]
}

var validate = validator.New()

func ValidateInput(input interface{}) error {
	return validate.Struct(input)
}

var (
	ErrAmountNotInteger = errors.New("amount must be a whole number of minor units")
	ErrAmountOutOfRange = errors.New("amount is out of range")
)

// ToMinorUnits converts a decoded JSON amount to int64 minor units. Fractional
// and out of range values are rejected.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsInteger() {
		return 0, ErrAmountNotInteger
	}
	if !amount.BigInt().IsInt64() {
		return 0, ErrAmountOutOfRange
	}
	return amount.IntPart(), nil
}
