package web

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/99minutos/product-dashboard/internal/dashboard/apiclient"
	"github.com/99minutos/product-dashboard/internal/dashboard/store"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

var fieldLabels = map[string]string{
	"email":    "Email",
	"password": "Password",
	"name":     "Name",
	"sku":      "SKU",
	"price":    "Price",
	"stock":    "Stock",
	"category": "Category",
	"status":   "Status",
}

// fieldErrors maps form field names to the message shown under them.
type fieldErrors map[string]string

// validateForm runs the struct's validate tags. The returned map is nil
// when the form is valid.
func validateForm(form any) fieldErrors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fieldErrors{"": err.Error()}
	}
	out := make(fieldErrors, len(ve))
	for _, fe := range ve {
		label := fieldLabels[fe.Field()]
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = label + " is required"
		case "email":
			out[fe.Field()] = label + " must be a valid email"
		case "numeric":
			out[fe.Field()] = label + " must be a number"
		case "number":
			out[fe.Field()] = label + " must be a whole number"
		case "oneof":
			out[fe.Field()] = label + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
		default:
			out[fe.Field()] = label + " is invalid"
		}
	}
	return out
}

type loginForm struct {
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Redirect string `form:"redirect"`
}

// productForm holds the raw text of the product dialog so a failed submit
// can be shown back exactly as typed.
type productForm struct {
	Name     string `form:"name"     validate:"required"`
	SKU      string `form:"sku"      validate:"required"`
	Price    string `form:"price"    validate:"required,numeric"`
	Stock    string `form:"stock"    validate:"required,number"`
	Category string `form:"category" validate:"required"`
	Status   string `form:"status"   validate:"required,oneof=pending confirmed delivered cancelled"`
}

// defaultProductForm is the empty add-product dialog.
func defaultProductForm() productForm {
	return productForm{Price: "0", Stock: "0", Status: "pending"}
}

func productFormFrom(p store.Product) productForm {
	return productForm{
		Name:     p.Name,
		SKU:      p.SKU,
		Price:    strconv.FormatFloat(p.Price, 'f', -1, 64),
		Stock:    strconv.Itoa(p.Stock),
		Category: p.Category,
		Status:   p.Status,
	}
}

func (f *productForm) trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.SKU = strings.TrimSpace(f.SKU)
	f.Price = strings.TrimSpace(f.Price)
	f.Stock = strings.TrimSpace(f.Stock)
	f.Category = strings.TrimSpace(f.Category)
}

// parse validates the form and converts it to API input.
func (f productForm) parse() (apiclient.ProductInput, fieldErrors) {
	if errs := validateForm(f); errs != nil {
		return apiclient.ProductInput{}, errs
	}
	price, err := strconv.ParseFloat(f.Price, 64)
	if err != nil || price < 0 {
		return apiclient.ProductInput{}, fieldErrors{"price": "Price must be at least 0"}
	}
	stock, err := strconv.Atoi(f.Stock)
	if err != nil {
		return apiclient.ProductInput{}, fieldErrors{"stock": "Stock must be a whole number"}
	}
	return apiclient.ProductInput{
		Name:     f.Name,
		SKU:      f.SKU,
		Price:    price,
		Stock:    stock,
		Category: f.Category,
		Status:   f.Status,
	}, nil
}

// patch sends every field of the dialog, like the create request does.
func patchFrom(in apiclient.ProductInput) apiclient.ProductPatch {
	return apiclient.ProductPatch{
		Name:     &in.Name,
		SKU:      &in.SKU,
		Price:    &in.Price,
		Stock:    &in.Stock,
		Category: &in.Category,
		Status:   &in.Status,
	}
}
