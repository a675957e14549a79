package consulta

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	appconsulta "exemplo.com.br/creditos/internal/application/consulta"
	"exemplo.com.br/creditos/internal/core/credit"
	"exemplo.com.br/creditos/internal/core/format"
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

type column struct {
	Label  string
	URL    string
	Active bool
	Arrow  string
}

type pageLink struct {
	Label  string
	URL    string
	Active bool
}

// pageView is everything the template needs; it holds no logic of its own.
type pageView struct {
	Title       string
	KindOptions []option
	Value       string
	Submitting  bool
	KindError   *appconsulta.FieldError
	ValueError  *appconsulta.FieldError
	Notice      string

	Loading     bool
	ShowError   bool
	ShowEmpty   bool
	ShowResults bool
	Message     string
	Subtitle    string
	TotalLabel  string

	Columns       []column
	Rows          []appconsulta.Row
	ShowPaginator bool
	Page          appconsulta.PageInfo
	RangeLabel    string
	PageSizes     []pageLink
	PrevURL       string
	NextURL       string
}

var kindLabels = []struct {
	kind  credit.QueryKind
	label string
}{
	{credit.ByInvoice, "Número da NFS-e"},
	{credit.ByCredit, "Número do Crédito"},
}

var columns = []struct {
	field appconsulta.SortField
	label string
}{
	{appconsulta.SortCreditNumber, "Número do Crédito"},
	{appconsulta.SortInvoiceNumber, "Número da NFS-e"},
	{appconsulta.SortDocument, "CPF/CNPJ"},
	{appconsulta.SortTaxpayer, "Razão Social"},
	{appconsulta.SortDueDate, "Data de Vencimento"},
	{appconsulta.SortAmount, "Valor"},
	{appconsulta.SortStatus, "Situação"},
}

func (v *pageView) setFieldErrors(result appconsulta.ValidationResult) {
	if fe, ok := result.FieldErrors[appconsulta.FieldKind]; ok {
		v.KindError = &fe
	}
	if fe, ok := result.FieldErrors[appconsulta.FieldValue]; ok {
		v.ValueError = &fe
	}
}

func buildPageView(sess *Session, now time.Time, loc *time.Location) pageView {
	kind, value := sess.Form.Draft()
	state := sess.Orchestrator.State()
	sess.Table.Bind(state)

	v := pageView{
		Title:      "Consulta de Créditos",
		Value:      value,
		Submitting: sess.Form.Submitting() || state.Phase == appconsulta.PhaseLoading,
		Loading:    state.Phase == appconsulta.PhaseLoading,
		ShowError:  state.Phase == appconsulta.PhaseError,
		ShowEmpty:  state.Phase == appconsulta.PhaseSuccess && !state.HasResults(),
	}
	for _, k := range kindLabels {
		v.KindOptions = append(v.KindOptions, option{Value: string(k.kind), Label: k.label, Selected: k.kind == kind})
	}

	switch {
	case v.ShowError:
		v.Message = state.ErrorMessage
	case v.ShowEmpty:
		v.Message = state.Message
	}

	if !state.HasResults() {
		return v
	}

	v.ShowResults = true
	if !state.LastQueriedAt.IsZero() {
		v.Subtitle = "Consultado em " + format.DateTime(state.LastQueriedAt.In(loc))
	}
	v.TotalLabel = totalLabel(state.Total)

	field, dir := sess.Table.Sort()
	page := sess.Table.Page()
	v.Page = page
	v.Rows = sess.Table.Rows(now)
	v.ShowPaginator = sess.Table.ShowPaginator()

	for _, c := range columns {
		col := column{Label: c.label}
		next := appconsulta.SortAsc
		if c.field == field {
			col.Active = true
			col.Arrow = "▲"
			if dir == appconsulta.SortAsc {
				next = appconsulta.SortDesc
			} else {
				col.Arrow = "▼"
			}
		}
		col.URL = listURL(0, page.Size, c.field, next)
		v.Columns = append(v.Columns, col)
	}

	if v.ShowPaginator {
		v.RangeLabel = fmt.Sprintf("%d – %d de %d", page.First, page.Last, page.Length)
		for _, size := range appconsulta.PageSizeOptions {
			v.PageSizes = append(v.PageSizes, pageLink{
				Label:  strconv.Itoa(size),
				URL:    listURL(0, size, field, dir),
				Active: size == page.Size,
			})
		}
		if page.HasPrev {
			v.PrevURL = listURL(page.Index-1, page.Size, field, dir)
		}
		if page.HasNext {
			v.NextURL = listURL(page.Index+1, page.Size, field, dir)
		}
	}
	return v
}

func totalLabel(n int) string {
	if n == 1 {
		return "1 crédito encontrado"
	}
	return fmt.Sprintf("%d créditos encontrados", n)
}

func listURL(page, size int, field appconsulta.SortField, dir appconsulta.SortDirection) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if field != appconsulta.SortNone {
		q.Set("sort", string(field))
		q.Set("dir", string(dir))
	}
	return "/?" + q.Encode()
}

// apiView is the JSON rendering of a session.
type apiView struct {
	State         appconsulta.State             `json:"state"`
	Form          formView                      `json:"form"`
	Validation    *appconsulta.ValidationResult `json:"validation,omitempty"`
	Sort          sortView                      `json:"sort"`
	Page          appconsulta.PageInfo          `json:"page"`
	ShowPaginator bool                          `json:"showPaginator"`
	Rows          []appconsulta.Row             `json:"rows"`
}

type formView struct {
	Kind       credit.QueryKind `json:"tipoConsulta"`
	Value      string           `json:"valor"`
	Submitting bool             `json:"submitting"`
}

type sortView struct {
	Field appconsulta.SortField     `json:"field,omitempty"`
	Dir   appconsulta.SortDirection `json:"dir"`
}

func buildAPIView(sess *Session, now time.Time) apiView {
	kind, value := sess.Form.Draft()
	state := sess.Orchestrator.State()
	sess.Table.Bind(state)
	field, dir := sess.Table.Sort()

	return apiView{
		State:         state,
		Form:          formView{Kind: kind, Value: value, Submitting: sess.Form.Submitting()},
		Sort:          sortView{Field: field, Dir: dir},
		Page:          sess.Table.Page(),
		ShowPaginator: sess.Table.ShowPaginator(),
		Rows:          sess.Table.Rows(now),
	}
}
