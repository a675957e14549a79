package consulta

import (
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"exemplo.com.br/creditos/internal/core/credit"
	"exemplo.com.br/creditos/internal/core/format"
)

const DefaultPageSize = 10

// PageSizeOptions are the sizes offered by the paginator.
var PageSizeOptions = []int{5, 10, 25, 50}

// SortField names a sortable column. Values match the wire field names.
type SortField string

const (
	SortNone          SortField = ""
	SortCreditNumber  SortField = "numeroCredito"
	SortInvoiceNumber SortField = "numeroNfse"
	SortDocument      SortField = "cpfCnpj"
	SortTaxpayer      SortField = "razaoSocial"
	SortDueDate       SortField = "dataVencimento"
	SortAmount        SortField = "valor"
	SortStatus        SortField = "situacao"
)

// ParseSortField returns SortNone for unknown columns.
func ParseSortField(raw string) SortField {
	switch f := SortField(raw); f {
	case SortCreditNumber, SortInvoiceNumber, SortDocument, SortTaxpayer, SortDueDate, SortAmount, SortStatus:
		return f
	default:
		return SortNone
	}
}

// SortDirection is "asc" or "desc".
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection defaults to ascending.
func ParseSortDirection(raw string) SortDirection {
	if strings.EqualFold(raw, string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// Row is a record ready for display.
type Row struct {
	ID              string          `json:"id"`
	CreditNumber    string          `json:"numeroCredito"`
	InvoiceNumber   string          `json:"numeroNfse"`
	Document        string          `json:"cpfCnpj"`
	TaxpayerName    string          `json:"razaoSocial"`
	DueDate         string          `json:"dataVencimento"`
	Amount          string          `json:"valor"`
	Status          credit.Status   `json:"situacao"`
	StatusLabel     string          `json:"situacaoDescricao"`
	StatusColor     format.ColorTag `json:"cor"`
	StatusIcon      string          `json:"icone"`
	Overdue         bool            `json:"vencido"`
	ConstitutedAt   string          `json:"dataConstituicao,omitempty"`
	ISSQNAmount     string          `json:"valorIssqn,omitempty"`
	CreditType      string          `json:"tipoCredito,omitempty"`
	Rate            string          `json:"aliquota,omitempty"`
	CalculationBase string          `json:"baseCalculo,omitempty"`
}

// PageInfo describes the paginator.
type PageInfo struct {
	Index   int  `json:"pageIndex"`
	Size    int  `json:"pageSize"`
	Length  int  `json:"length"`
	Pages   int  `json:"pages"`
	HasPrev bool `json:"hasPrevious"`
	HasNext bool `json:"hasNext"`
	First   int  `json:"first"`
	Last    int  `json:"last"`
}

// Table paginates and sorts the records of the latest resolved query.
// Sorting applies to the whole record set before it is sliced into pages.
type Table struct {
	mu         sync.Mutex
	pageSize   int
	pageIndex  int
	generation uint64
	bound      bool
	source     []credit.Record
	records    []credit.Record
	sortField  SortField
	sortDir    SortDirection
	collator   *collate.Collator
}

// NewTable returns a table with the given page size (DefaultPageSize when <= 0).
func NewTable(pageSize int) *Table {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Table{
		pageSize: pageSize,
		sortDir:  SortAsc,
		collator: collate.New(language.BrazilianPortuguese, collate.IgnoreCase, collate.Numeric),
	}
}

// Bind points the table at the records of s. A new record set resets the
// page index to zero; binding the same set again keeps the position.
func (t *Table) Bind(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bound && s.Generation == t.generation {
		return
	}
	t.bound = true
	t.generation = s.Generation
	t.pageIndex = 0
	t.source = append([]credit.Record(nil), s.Records...)
	t.resort()
}

// ChangePage moves to index with the given size. A size <= 0 keeps the
// current one; the index is clamped to the available pages.
func (t *Table) ChangePage(index, size int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if size > 0 {
		t.pageSize = size
	}
	t.pageIndex = clamp(index, 0, t.lastPage())
}

// SortBy orders the full record set and returns to the first page.
// SortNone restores the order returned by the service.
func (t *Table) SortBy(field SortField, dir SortDirection) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if field == t.sortField && dir == t.sortDir {
		return
	}
	t.sortField = field
	t.sortDir = dir
	t.pageIndex = 0
	t.resort()
}

// Sort reports the active column and direction.
func (t *Table) Sort() (SortField, SortDirection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sortField, t.sortDir
}

// Visible returns the records of the current page.
func (t *Table) Visible() []credit.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.visible())
}

func (t *Table) visible() []credit.Record {
	start := t.pageIndex * t.pageSize
	if start >= len(t.records) {
		return []credit.Record{}
	}
	end := min(start+t.pageSize, len(t.records))
	return t.records[start:end]
}

// All returns the full record set in display order.
func (t *Table) All() []credit.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.records)
}

// ShowPaginator is true only when the records do not fit in one page.
func (t *Table) ShowPaginator() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records) > t.pageSize
}

// Page describes the current paginator position.
func (t *Table) Page() PageInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	info := PageInfo{
		Index:  t.pageIndex,
		Size:   t.pageSize,
		Length: len(t.records),
		Pages:  t.lastPage() + 1,
	}
	info.HasPrev = t.pageIndex > 0
	info.HasNext = t.pageIndex < t.lastPage()
	if info.Length > 0 {
		info.First = t.pageIndex*t.pageSize + 1
		info.Last = t.pageIndex*t.pageSize + len(t.visible())
	}
	return info
}

// Rows formats the current page. Overdue rows are flagged, never reordered.
func (t *Table) Rows(now time.Time) []Row {
	t.mu.Lock()
	defer t.mu.Unlock()

	page := t.visible()
	rows := make([]Row, 0, len(page))
	for _, r := range page {
		rows = append(rows, NewRow(r, now))
	}
	return rows
}

// NewRow formats a single record.
func NewRow(r credit.Record, now time.Time) Row {
	row := Row{
		ID:            r.ID,
		CreditNumber:  r.CreditNumber,
		InvoiceNumber: r.InvoiceNumber,
		Document:      format.MaskDocument(r.TaxpayerDocument),
		TaxpayerName:  r.TaxpayerName,
		DueDate:       format.Date(r.DueDate),
		Amount:        format.CurrencyBRL(r.Amount),
		Status:        r.Status,
		StatusLabel:   format.StatusLabel(r.Status),
		StatusColor:   format.StatusColor(r.Status),
		StatusIcon:    format.StatusIcon(r.Status),
		Overdue:       format.IsOverdue(r.DueDate, now),
	}
	if d := r.Detail; d != nil {
		row.ConstitutedAt = format.Date(d.ConstitutedAt)
		row.ISSQNAmount = format.CurrencyBRL(d.ISSQNAmount)
		row.CreditType = d.CreditType
		row.Rate = format.Percent(d.Rate)
		row.CalculationBase = format.CurrencyBRL(d.CalculationBase)
	}
	return row
}

func (t *Table) lastPage() int {
	if len(t.records) == 0 {
		return 0
	}
	return (len(t.records) - 1) / t.pageSize
}

func (t *Table) resort() {
	t.records = slices.Clone(t.source)
	if t.sortField == SortNone {
		return
	}
	slices.SortStableFunc(t.records, func(a, b credit.Record) int {
		c := t.compare(a, b)
		if t.sortDir == SortDesc {
			return -c
		}
		return c
	})
}

func (t *Table) compare(a, b credit.Record) int {
	switch t.sortField {
	case SortCreditNumber:
		return t.collator.CompareString(a.CreditNumber, b.CreditNumber)
	case SortInvoiceNumber:
		return t.collator.CompareString(a.InvoiceNumber, b.InvoiceNumber)
	case SortDocument:
		return strings.Compare(a.TaxpayerDocument, b.TaxpayerDocument)
	case SortTaxpayer:
		return t.collator.CompareString(a.TaxpayerName, b.TaxpayerName)
	case SortDueDate:
		return a.DueDate.Compare(b.DueDate)
	case SortAmount:
		return a.Amount.Cmp(b.Amount)
	case SortStatus:
		return strings.Compare(format.StatusLabel(a.Status), format.StatusLabel(b.Status))
	default:
		return 0
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
