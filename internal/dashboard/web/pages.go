package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/product-dashboard/internal/core/domain"
	"github.com/99minutos/product-dashboard/internal/dashboard/analytics"
	"github.com/99minutos/product-dashboard/internal/dashboard/apiclient"
	"github.com/99minutos/product-dashboard/internal/dashboard/guard"
	"github.com/99minutos/product-dashboard/internal/dashboard/store"
	"github.com/99minutos/product-dashboard/internal/dashboard/table"
)

const genericFailure = "Something went wrong. Please try again."

type pages struct {
	store *store.Store
	sync  Syncer
	log   zerolog.Logger
	loc   *time.Location
}

// view is what the layout renders. Data holds the page's own content.
type view struct {
	Title string
	User  *store.User
	Nav   string
	Live  bool
	Data  any
}

func (h *pages) view(title, nav string, data any) view {
	return view{Title: title, User: h.store.Auth().User, Nav: nav, Data: data}
}

// --- auth ---

type loginData struct {
	Form   loginForm
	Errors fieldErrors
	Error  string
}

func (h *pages) loginForm(c echo.Context) error {
	redirect := guard.SafeRedirect(c.QueryParam("redirect"))
	if h.store.Auth().IsAuthenticated {
		return c.Redirect(http.StatusSeeOther, redirect)
	}
	return c.Render(http.StatusOK, "login.html", h.view("Login", "", loginData{Form: loginForm{Redirect: redirect}}))
}

func (h *pages) login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	form.Redirect = guard.SafeRedirect(form.Redirect)
	if h.store.Auth().IsAuthenticated {
		return c.Redirect(http.StatusSeeOther, form.Redirect)
	}

	if errs := validateForm(form); errs != nil {
		form.Password = ""
		return c.Render(http.StatusUnprocessableEntity, "login.html", h.view("Login", "", loginData{Form: form, Errors: errs}))
	}

	if _, err := h.sync.Login(c.Request().Context(), form.Email, form.Password); err != nil {
		form.Password = ""
		status := http.StatusUnauthorized
		msg := "Login failed. Please try again."
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Message != "" {
				msg = apiErr.Message
			}
		} else {
			status = http.StatusBadGateway
			h.log.Error().Err(err).Msg("login request failed")
		}
		return c.Render(status, "login.html", h.view("Login", "", loginData{Form: form, Error: msg}))
	}
	return c.Redirect(http.StatusSeeOther, form.Redirect)
}

// logout always ends on the login page.
func (h *pages) logout(c echo.Context) error {
	h.sync.Logout(c.Request().Context())
	return c.Redirect(http.StatusSeeOther, "/login")
}

// --- products ---

type statusOption struct {
	Value    string
	Label    string
	Selected bool
}

type productsData struct {
	Criteria table.Criteria
	Options  []statusOption
	Rows     []store.Product
	Total    int
}

func statusOptions(selected string) []statusOption {
	opts := []statusOption{{Value: table.StatusAll, Label: "All status"}}
	for _, s := range domain.Statuses {
		opts = append(opts, statusOption{Value: string(s), Label: statusTitle(string(s))})
	}
	for i := range opts {
		opts[i].Selected = opts[i].Value == selected
	}
	return opts
}

func statusTitle(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (h *pages) products(c echo.Context) error {
	criteria := table.ParseCriteria(c.QueryParam("search"), c.QueryParam("status"))
	items := h.store.Products()

	v := h.view("Products", "products", productsData{
		Criteria: criteria,
		Options:  statusOptions(criteria.Status),
		Rows:     criteria.Filter(items),
		Total:    len(items),
	})
	v.Live = true
	return c.Render(http.StatusOK, "products.html", v)
}

type productFormData struct {
	ID     string
	Edit   bool
	Form   productForm
	Errors fieldErrors
	Error  string
	Status []statusOption
}

func (h *pages) renderProductForm(c echo.Context, code int, d productFormData) error {
	d.Status = statusOptions(d.Form.Status)[1:]
	title := "Add product"
	if d.Edit {
		title = "Edit product"
	}
	return c.Render(code, "product_form.html", h.view(title, "products", d))
}

func (h *pages) newProduct(c echo.Context) error {
	return h.renderProductForm(c, http.StatusOK, productFormData{Form: defaultProductForm()})
}

func (h *pages) createProduct(c echo.Context) error {
	var form productForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	form.trim()
	in, errs := form.parse()
	if errs != nil {
		return h.renderProductForm(c, http.StatusUnprocessableEntity, productFormData{Form: form, Errors: errs})
	}
	if _, err := h.sync.CreateProduct(c.Request().Context(), in); err != nil {
		return h.renderProductForm(c, failureStatus(err), productFormData{Form: form, Error: h.failureMessage(err)})
	}
	return c.Redirect(http.StatusSeeOther, "/products")
}

func (h *pages) editProduct(c echo.Context) error {
	p, err := h.find(c)
	if err != nil {
		return err
	}
	return h.renderProductForm(c, http.StatusOK, productFormData{ID: p.ID, Edit: true, Form: productFormFrom(p)})
}

func (h *pages) updateProduct(c echo.Context) error {
	p, err := h.find(c)
	if err != nil {
		return err
	}
	var form productForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	form.trim()
	d := productFormData{ID: p.ID, Edit: true, Form: form}
	in, errs := form.parse()
	if errs != nil {
		d.Errors = errs
		return h.renderProductForm(c, http.StatusUnprocessableEntity, d)
	}
	if _, err := h.sync.UpdateProduct(c.Request().Context(), p.ID, patchFrom(in)); err != nil {
		d.Error = h.failureMessage(err)
		return h.renderProductForm(c, failureStatus(err), d)
	}
	return c.Redirect(http.StatusSeeOther, "/products")
}

type confirmData struct {
	Heading      string
	Description  string
	Action       string
	ConfirmLabel string
	Destructive  bool
	Error        string
}

func deleteDialog(p store.Product) confirmData {
	return confirmData{
		Heading:      "Delete product",
		Description:  fmt.Sprintf("Are you sure you want to delete %q? This action cannot be undone.", p.Name),
		Action:       "/products/" + p.ID + "/delete",
		ConfirmLabel: "Delete",
		Destructive:  true,
	}
}

func (h *pages) confirmDelete(c echo.Context) error {
	p, err := h.find(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "confirm.html", h.view("Delete product", "products", deleteDialog(p)))
}

func (h *pages) deleteProduct(c echo.Context) error {
	p, err := h.find(c)
	if err != nil {
		return err
	}
	if err := h.sync.DeleteProduct(c.Request().Context(), p.ID); err != nil {
		d := deleteDialog(p)
		d.Error = h.failureMessage(err)
		return c.Render(failureStatus(err), "confirm.html", h.view("Delete product", "products", d))
	}
	return c.Redirect(http.StatusSeeOther, "/products")
}

func statusDialog(p store.Product) confirmData {
	d := confirmData{
		Heading: "Change product status",
		Action:  "/products/" + p.ID + "/status",
	}
	next, err := domain.ProductStatus(p.Status).Toggle()
	if err != nil {
		d.Description = fmt.Sprintf("%q is %s and its status can no longer change.", p.Name, p.Status)
		return d
	}
	d.Description = fmt.Sprintf("Change the status of %q from %s to %s?", p.Name, statusTitle(p.Status), statusTitle(string(next)))
	d.ConfirmLabel = "Change status"
	return d
}

func (h *pages) confirmStatus(c echo.Context) error {
	p, err := h.find(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "confirm.html", h.view("Change product status", "products", statusDialog(p)))
}

func (h *pages) toggleStatus(c echo.Context) error {
	p, err := h.find(c)
	if err != nil {
		return err
	}
	if _, err := h.sync.ToggleStatus(c.Request().Context(), p); err != nil {
		d := statusDialog(p)
		d.Error = h.failureMessage(err)
		return c.Render(failureStatus(err), "confirm.html", h.view("Change product status", "products", d))
	}
	return c.Redirect(http.StatusSeeOther, "/products")
}

// find looks the :id product up in the store.
func (h *pages) find(c echo.Context) (store.Product, error) {
	id := c.Param("id")
	for _, p := range h.store.Products() {
		if p.ID == id {
			return p, nil
		}
	}
	return store.Product{}, echo.ErrNotFound
}

// failureMessage is the inline text for a failed mutation: the API's own
// message when it sent one.
func (h *pages) failureMessage(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		return err.Error()
	default:
		h.log.Error().Err(err).Msg("mutation request failed")
		return genericFailure
	}
}

func failureStatus(err error) int {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// --- analytics ---

type analyticsData struct {
	Summary    analytics.Summary
	ByStatus   []analytics.Bucket
	ByCategory []analytics.Bucket
	ByMonth    []analytics.Bucket
	StatusMax  int
	CatMax     int
	MonthMax   int
	HasData    bool
}

func (h *pages) analytics(c echo.Context) error {
	items := h.store.Products()
	d := analyticsData{
		Summary:    analytics.Summarize(items),
		ByStatus:   analytics.ByStatus(items),
		ByCategory: analytics.ByCategory(items),
		ByMonth:    analytics.ByMonth(items, h.loc),
	}
	d.StatusMax = analytics.Max(d.ByStatus)
	d.CatMax = analytics.Max(d.ByCategory)
	d.MonthMax = analytics.Max(d.ByMonth)
	d.HasData = len(d.ByStatus) > 0 || len(d.ByCategory) > 0 || len(d.ByMonth) > 0

	v := h.view("Analytics", "analytics", d)
	v.Live = true
	return c.Render(http.StatusOK, "analytics.html", v)
}
