// Package forecast turns aggregated history into a dated forecast: a baseline
// projection, rule-based adjustments layered on top of it, and the insights
// derived from both.
package forecast

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"campusfin/internal/analytics"
	"campusfin/internal/models"
)

// Dimension groups context fields. Rule conditions may test the first four;
// adjustment refs may read all six.
type Dimension string

const (
	DimStudent     Dimension = "student"
	DimFinancial   Dimension = "financial"
	DimTemporal    Dimension = "temporal"
	DimTransaction Dimension = "transaction"
	DimDebt        Dimension = "debt"
	DimEvent       Dimension = "event"
	DimAcademic    Dimension = "academic"
)

// ValueKind tags a context Value.
type ValueKind int

const (
	KindNumber ValueKind = iota + 1
	KindText
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Value is a tagged context value.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
}

func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func Text(s string) Value    { return Value{Kind: KindText, Str: s} }
func Flag(b bool) Value      { return Value{Kind: KindBool, Bool: b} }

type dayRange struct{ from, to time.Time }

// Context is the read-only view of a student's situation that rules are
// evaluated against. Build it once per pipeline run.
type Context struct {
	fields    map[Dimension]map[string]Value
	schedules map[string]map[string]float64

	paymentDays map[string]bool
	eventDays   map[string]bool
	academic    []dayRange
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{
		fields:      make(map[Dimension]map[string]Value),
		schedules:   make(map[string]map[string]float64),
		paymentDays: make(map[string]bool),
		eventDays:   make(map[string]bool),
	}
}

// Set stores a field value.
func (c *Context) Set(dim Dimension, field string, v Value) {
	m, ok := c.fields[dim]
	if !ok {
		m = make(map[string]Value)
		c.fields[dim] = m
	}
	m[field] = v
}

// Lookup returns a field value and whether it exists.
func (c *Context) Lookup(dim Dimension, field string) (Value, bool) {
	v, ok := c.fields[dim][field]
	return v, ok
}

// refPath is the dotted name adjustment values use to read a field.
func refPath(dim Dimension, field string) string { return string(dim) + "." + field }

// dated marks path as a dated ref and returns its schedule. A dated ref
// resolves only on the days it has entries, even when it has none at all.
func (c *Context) dated(path string) map[string]float64 {
	m, ok := c.schedules[path]
	if !ok {
		m = make(map[string]float64)
		c.schedules[path] = m
	}
	return m
}

// schedule records a dated amount for a ref path such as
// "debt.monthly_payment". Amounts on the same day accumulate.
func (c *Context) schedule(path string, day time.Time, amount float64) {
	c.dated(path)[analytics.DayKey(day)] += amount
}

// scheduleProduct is schedule for multiplicative factors.
func (c *Context) scheduleProduct(path string, day time.Time, factor float64) {
	m := c.dated(path)
	key := analytics.DayKey(day)
	if cur, seen := m[key]; seen {
		m[key] = cur * factor
		return
	}
	m[key] = factor
}

// Resolve evaluates an adjustment value for the forecast point on day. A
// dated ref such as "debt.monthly_payment" yields its amount for day, and due
// is false when nothing falls on day. Other refs read their context field and
// are due on every day.
func (c *Context) Resolve(v models.AdjustmentValue, day time.Time) (value float64, due bool, err error) {
	if v.Literal != nil {
		return *v.Literal, true, nil
	}
	if v.Ref == "" {
		return 0, false, ErrInvalidAdjustment
	}

	if dated, ok := c.schedules[v.Ref]; ok {
		amount, hit := dated[analytics.DayKey(day)]
		return amount, hit, nil
	}

	dim, field, ok := strings.Cut(v.Ref, ".")
	if !ok {
		return 0, false, missingField(v.Ref)
	}
	val, found := c.Lookup(Dimension(dim), field)
	if !found {
		return 0, false, missingField(v.Ref)
	}
	if val.Kind != KindNumber {
		return 0, false, typeMismatch(v.Ref, KindNumber, val.Kind)
	}
	return val.Num, true, nil
}

func (c *Context) isPaymentDay(day time.Time) bool { return c.paymentDays[analytics.DayKey(day)] }
func (c *Context) isEventDay(day time.Time) bool   { return c.eventDays[analytics.DayKey(day)] }

func (c *Context) inAcademicWindow(day time.Time) bool {
	d := analytics.DayStart(day)
	for _, r := range c.academic {
		if !d.Before(r.from) && !d.After(r.to) {
			return true
		}
	}
	return false
}

// ContextInput carries everything BuildContext reads.
type ContextInput struct {
	Horizon        analytics.Window
	Student        models.Student
	History        analytics.Summary
	Budget         analytics.BudgetStatus
	Breakdown      []analytics.CategoryStat
	Debts          []models.Debt
	FutureEvents   []models.FutureEvent
	AcademicEvents []models.AcademicEvent
}

// BuildContext derives rule-evaluation fields from a student's profile,
// history and obligations. Optional fields (debt, event, exam data) are only
// set when their source exists, so rules that depend on them fail with a
// missing-field error instead of silently reading zero.
func BuildContext(in ContextInput) *Context {
	c := NewContext()
	start := analytics.DayStart(in.Horizon.Start)

	// student
	s := in.Student
	c.Set(DimStudent, "year_of_study", Number(float64(s.YearOfStudy)))
	c.Set(DimStudent, "has_scholarship", Flag(s.HasScholarship))
	c.Set(DimStudent, "lives_on_campus", Flag(s.LivesOnCampus))
	c.Set(DimStudent, "university", Text(s.University))
	c.Set(DimStudent, "monthly_allowance", Number(s.MonthlyAllowance.InexactFloat64()))

	// financial
	h := in.History
	perMonth := decimal.NewFromInt(30).Div(decimal.NewFromInt(int64(max(h.Days, 1))))
	income := h.Income.Mul(perMonth).InexactFloat64()
	expense := h.Expense.Mul(perMonth).InexactFloat64()
	c.Set(DimFinancial, "monthly_income", Number(income))
	c.Set(DimFinancial, "monthly_expense", Number(expense))
	c.Set(DimFinancial, "net_balance", Number(h.NetBalance.InexactFloat64()))
	c.Set(DimFinancial, "daily_average_expense", Number(h.DailyAverage.InexactFloat64()))
	c.Set(DimFinancial, "budget_used_percentage", Number(in.Budget.BudgetUsedPercentage))
	c.Set(DimFinancial, "budget_status", Text(string(in.Budget.Status)))
	if h.Income.IsPositive() {
		c.Set(DimFinancial, "savings_rate", Number(h.NetBalance.Div(h.Income).InexactFloat64()))
	}

	// transaction
	c.Set(DimTransaction, "transaction_count", Number(float64(h.TransactionCount)))
	c.Set(DimTransaction, "income_count", Number(float64(h.IncomeCount)))
	c.Set(DimTransaction, "expense_count", Number(float64(h.ExpenseCount)))
	c.Set(DimTransaction, "history_days", Number(float64(h.Days)))
	if len(in.Breakdown) > 0 {
		c.Set(DimTransaction, "top_category", Text(in.Breakdown[0].CategoryName))
		c.Set(DimTransaction, "top_category_share", Number(in.Breakdown[0].Percentage))
	}

	// temporal
	c.Set(DimTemporal, "month", Number(float64(start.Month())))
	c.Set(DimTemporal, "day_of_month", Number(float64(start.Day())))
	c.Set(DimTemporal, "weekday", Number(float64(start.Weekday())))
	c.Set(DimTemporal, "horizon_days", Number(float64(in.Horizon.Days())))

	addDebts(c, in.Debts, in.Horizon)
	addFutureEvents(c, in.FutureEvents, in.Horizon)
	addAcademicEvents(c, in.AcademicEvents, in.Horizon)
	return c
}

func addDebts(c *Context, debts []models.Debt, horizon analytics.Window) {
	var (
		count     int
		monthly   float64
		remaining float64
		next      *time.Time
	)
	for i := range debts {
		d := &debts[i]
		if !d.IsActive || !d.AffectsPredictions {
			continue
		}
		count++
		payment := d.MonthlyPayment.InexactFloat64()
		monthly += payment
		remaining += d.RemainingAmount.InexactFloat64()

		// Only as many payments as the remaining balance needs.
		maxPayments := -1
		if d.MonthlyPayment.IsPositive() {
			maxPayments = int(d.RemainingAmount.Div(d.MonthlyPayment).Ceil().IntPart())
		}
		c.dated(refPath(DimDebt, "monthly_payment"))
		first := analytics.DayStart(d.NextPaymentDate)
		due := first
		for n := 0; due.Before(horizon.End) && (maxPayments < 0 || n < maxPayments); n++ {
			if !due.Before(analytics.DayStart(horizon.Start)) {
				c.schedule(refPath(DimDebt, "monthly_payment"), due, payment)
				c.paymentDays[analytics.DayKey(due)] = true
				if next == nil || due.Before(*next) {
					day := due
					next = &day
				}
			}
			due = addMonths(first, n+1)
		}
	}

	c.Set(DimFinancial, "active_debt_count", Number(float64(count)))
	c.Set(DimFinancial, "total_monthly_debt_payment", Number(monthly))
	if count == 0 {
		return
	}
	c.Set(DimDebt, "count", Number(float64(count)))
	c.Set(DimDebt, "monthly_payment", Number(monthly))
	c.Set(DimDebt, "remaining_amount", Number(remaining))
	if next != nil {
		days := int(next.Sub(analytics.DayStart(horizon.Start)).Hours() / 24)
		c.Set(DimTemporal, "days_until_next_payment", Number(float64(days)))
	}
}

func addFutureEvents(c *Context, events []models.FutureEvent, horizon analytics.Window) {
	var count int
	var total, incomeTotal, expenseTotal float64
	for i := range events {
		e := &events[i]
		if !e.AffectsPredictions || !horizon.Contains(e.ExpectedDate) {
			continue
		}
		if count == 0 {
			for _, field := range []string{"estimated_amount", "income_amount", "expense_amount"} {
				c.dated(refPath(DimEvent, field))
			}
		}
		count++
		amount := e.EstimatedAmount.InexactFloat64()
		total += amount
		c.schedule(refPath(DimEvent, "estimated_amount"), e.ExpectedDate, amount)
		if e.Type == models.TransactionTypeIncome {
			incomeTotal += amount
			c.schedule(refPath(DimEvent, "income_amount"), e.ExpectedDate, amount)
		} else {
			expenseTotal += amount
			c.schedule(refPath(DimEvent, "expense_amount"), e.ExpectedDate, amount)
		}
		c.eventDays[analytics.DayKey(e.ExpectedDate)] = true
	}

	c.Set(DimTemporal, "upcoming_event_count", Number(float64(count)))
	if count == 0 {
		return
	}
	c.Set(DimEvent, "count", Number(float64(count)))
	c.Set(DimEvent, "estimated_amount", Number(total))
	c.Set(DimEvent, "income_amount", Number(incomeTotal))
	c.Set(DimEvent, "expense_amount", Number(expenseTotal))
}

func addAcademicEvents(c *Context, events []models.AcademicEvent, horizon analytics.Window) {
	start := analytics.DayStart(horizon.Start)
	end := analytics.DayStart(horizon.End)

	sorted := make([]models.AcademicEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartDate.Before(sorted[j].StartDate) })

	inExam, inHoliday := false, false
	nextExam := -1
	for i := range sorted {
		e := &sorted[i]
		from, to := e.EffectiveWindow()
		from, to = analytics.DayStart(from), analytics.DayStart(to)
		if to.Before(start) || !from.Before(end) {
			continue
		}
		c.academic = append(c.academic, dayRange{from: from, to: to})
		for d := maxTime(from, start); !d.After(to) && d.Before(end); d = d.AddDate(0, 0, 1) {
			c.scheduleProduct(refPath(DimAcademic, "expense_impact"), d, e.ExpenseImpact)
			c.scheduleProduct(refPath(DimAcademic, "income_impact"), d, e.IncomeImpact)
		}

		covering := !start.Before(from) && !start.After(to)
		switch e.EventType {
		case models.AcademicEventExamPeriod:
			if covering {
				inExam = true
			}
			if d := int(analytics.DayStart(e.StartDate).Sub(start).Hours() / 24); d >= 0 && (nextExam < 0 || d < nextExam) {
				nextExam = d
			}
		case models.AcademicEventHoliday:
			if covering {
				inHoliday = true
			}
		}
	}

	c.Set(DimTemporal, "in_exam_period", Flag(inExam))
	c.Set(DimTemporal, "in_holiday", Flag(inHoliday))
	c.Set(DimTemporal, "academic_event_count", Number(float64(len(c.academic))))
	if nextExam >= 0 {
		c.Set(DimTemporal, "days_to_next_exam", Number(float64(nextExam)))
	}
}

// addMonths moves t by n calendar months, keeping the day of month where the
// target month has it and using its last day otherwise.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := min(t.Day(), analytics.DaysInMonth(first))
	return first.AddDate(0, 0, day-1)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
