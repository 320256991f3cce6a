package http

import (
	"strings"
	"time"

	"github.com/AlynxNeko/sangu/internal/core"
)

const dateLayout = "2006-01-02"

// Monetary amounts cross the wire as decimal strings and percentages as
// decimal numbers in percent units; cents and basis points stay internal.

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Currency    string    `json:"currency"`
	Theme       string    `json:"theme"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(u *core.UserProfile) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Currency:    u.Currency,
		Theme:       u.Theme,
		CreatedAt:   u.CreatedAt,
	}
}

type transactionRequest struct {
	Type            string        `json:"type"`
	Amount          string        `json:"amount"`
	CategoryID      string        `json:"category_id"`
	PaymentMethodID string        `json:"payment_method_id"`
	Description     string        `json:"description"`
	Date            string        `json:"date"`
	ReceiptURL      string        `json:"receipt_url"`
	Notes           string        `json:"notes"`
	Split           *splitRequest `json:"split"`
}

type splitRequest struct {
	Mode         string               `json:"mode"`
	Participants []participantRequest `json:"participants"`
}

type participantRequest struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// toTransaction converts the request into a domain transaction. For split
// payloads the entered amount is reconciled through ComputeSplit so the
// stored amount is always the user's own share.
func (req transactionRequest) toTransaction(userID string) (*core.Transaction, error) {
	entered, err := core.ParseMoney(req.Amount)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, core.ErrZeroDate
	}

	t := &core.Transaction{
		UserID:          userID,
		Type:            core.EntryType(req.Type),
		Amount:          entered,
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		Description:     sanitizeInput(req.Description),
		Date:            date,
		ReceiptURL:      strings.TrimSpace(req.ReceiptURL),
		Notes:           sanitizeInput(req.Notes),
	}
	if req.Split == nil {
		return t, nil
	}

	inputs := make([]core.SplitInput, len(req.Split.Participants))
	for i, p := range req.Split.Participants {
		amount, err := parseOptionalMoney(p.Amount)
		if err != nil {
			return nil, err
		}
		inputs[i] = core.SplitInput{Name: sanitizeInput(p.Name), Amount: amount}
	}

	result, err := core.ComputeSplit(core.SplitMode(req.Split.Mode), entered, inputs)
	if err != nil {
		return nil, err
	}

	t.Amount = result.UserShare
	t.IsSplit = true
	t.Split = &core.TransactionSplit{TotalAmount: result.TotalBill}
	t.Split.Participants = make([]core.SplitParticipant, len(inputs))
	for i, in := range inputs {
		t.Split.Participants[i] = core.SplitParticipant{Name: in.Name, AmountOwed: in.Amount}
	}
	return t, nil
}

type transactionResponse struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Amount          string         `json:"amount"`
	CategoryID      string         `json:"category_id,omitempty"`
	PaymentMethodID string         `json:"payment_method_id,omitempty"`
	Description     string         `json:"description"`
	Date            string         `json:"date"`
	ReceiptURL      string         `json:"receipt_url,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	IsSplit         bool           `json:"is_split"`
	Split           *splitResponse `json:"split,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

type splitResponse struct {
	ID           string                `json:"id"`
	TotalAmount  string                `json:"total_amount"`
	Participants []participantResponse `json:"participants"`
}

type participantResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AmountOwed string `json:"amount_owed"`
	IsPaid     bool   `json:"is_paid"`
}

func toTransactionResponse(t *core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:              t.ID,
		Type:            string(t.Type),
		Amount:          t.Amount.Decimal(),
		CategoryID:      t.CategoryID,
		PaymentMethodID: t.PaymentMethodID,
		Description:     t.Description,
		Date:            t.Date.Format(dateLayout),
		ReceiptURL:      t.ReceiptURL,
		Notes:           t.Notes,
		IsSplit:         t.IsSplit,
		CreatedAt:       t.CreatedAt,
	}
	if t.Split != nil {
		split := &splitResponse{
			ID:           t.Split.ID,
			TotalAmount:  t.Split.TotalAmount.Decimal(),
			Participants: make([]participantResponse, len(t.Split.Participants)),
		}
		for i, p := range t.Split.Participants {
			split.Participants[i] = participantResponse{
				ID:         p.ID,
				Name:       p.Name,
				AmountOwed: p.AmountOwed.Decimal(),
				IsPaid:     p.IsPaid,
			}
		}
		resp.Split = split
	}
	return resp
}

func toTransactionResponses(list []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(list))
	for i := range list {
		out[i] = toTransactionResponse(&list[i])
	}
	return out
}

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type categoryResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Icon     string `json:"icon,omitempty"`
	Color    string `json:"color,omitempty"`
	IsCustom bool   `json:"is_custom"`
}

func toCategoryResponse(c *core.Category) categoryResponse {
	return categoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		Type:     string(c.Type),
		Icon:     c.Icon,
		Color:    c.Color,
		IsCustom: c.IsCustom,
	}
}

type paymentMethodRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive *bool  `json:"is_active"`
}

type paymentMethodResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

func toPaymentMethodResponse(m *core.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{ID: m.ID, Name: m.Name, Type: string(m.Type), IsActive: m.IsActive}
}

type budgetRequest struct {
	CategoryID     string `json:"category_id"`
	Amount         string `json:"amount"`
	Period         string `json:"period"`
	AlertThreshold string `json:"alert_threshold"`
}

func (req budgetRequest) toBudget(userID string) (*core.Budget, error) {
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		return nil, err
	}
	threshold, err := parseOptionalPercent(req.AlertThreshold)
	if err != nil {
		return nil, err
	}
	period := req.Period
	if period == "" {
		period = "monthly"
	}
	return &core.Budget{
		UserID:         userID,
		CategoryID:     req.CategoryID,
		Amount:         amount,
		Period:         period,
		AlertThreshold: threshold,
	}, nil
}

type budgetResponse struct {
	ID             string  `json:"id"`
	CategoryID     string  `json:"category_id"`
	Amount         string  `json:"amount"`
	Period         string  `json:"period"`
	AlertThreshold float64 `json:"alert_threshold"`
}

func toBudgetResponse(b *core.Budget) budgetResponse {
	return budgetResponse{
		ID:             b.ID,
		CategoryID:     b.CategoryID,
		Amount:         b.Amount.Decimal(),
		Period:         b.Period,
		AlertThreshold: b.AlertThreshold.Float(),
	}
}

type budgetProgressResponse struct {
	Budget  budgetResponse `json:"budget"`
	Spent   string         `json:"spent"`
	Percent float64        `json:"percent"`
	Alerted bool           `json:"alerted"`
}

func toBudgetProgressResponses(list []core.BudgetProgress) []budgetProgressResponse {
	out := make([]budgetProgressResponse, len(list))
	for i, p := range list {
		out[i] = budgetProgressResponse{
			Budget:  toBudgetResponse(&p.Budget),
			Spent:   p.Spent.Decimal(),
			Percent: p.Percent.Float(),
			Alerted: p.Alerted,
		}
	}
	return out
}

type recurringRequest struct {
	Description    string `json:"description"`
	Amount         string `json:"amount"`
	Type           string `json:"type"`
	CategoryID     string `json:"category_id"`
	Frequency      string `json:"frequency"`
	NextOccurrence string `json:"next_occurrence"`
	IsActive       *bool  `json:"is_active"`
}

func (req recurringRequest) toRecurring(userID string) (*core.RecurringTransaction, error) {
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		return nil, err
	}
	next, err := time.Parse(dateLayout, req.NextOccurrence)
	if err != nil {
		return nil, core.ErrZeroDate
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &core.RecurringTransaction{
		UserID:         userID,
		Description:    sanitizeInput(req.Description),
		Amount:         amount,
		Type:           core.EntryType(req.Type),
		CategoryID:     req.CategoryID,
		Frequency:      core.Frequency(req.Frequency),
		NextOccurrence: next,
		IsActive:       active,
	}, nil
}

type recurringResponse struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	Amount         string `json:"amount"`
	Type           string `json:"type"`
	CategoryID     string `json:"category_id,omitempty"`
	Frequency      string `json:"frequency"`
	NextOccurrence string `json:"next_occurrence"`
	IsActive       bool   `json:"is_active"`
}

func toRecurringResponse(rt *core.RecurringTransaction) recurringResponse {
	return recurringResponse{
		ID:             rt.ID,
		Description:    rt.Description,
		Amount:         rt.Amount.Decimal(),
		Type:           string(rt.Type),
		CategoryID:     rt.CategoryID,
		Frequency:      string(rt.Frequency),
		NextOccurrence: rt.NextOccurrence.Format(dateLayout),
		IsActive:       rt.IsActive,
	}
}

type ruleRequest struct {
	Name string `json:"name"`

	TitheEnabled  bool   `json:"tithe_enabled"`
	TithePercent  string `json:"tithe_percent"`
	TitheMethodID string `json:"tithe_method_id"`

	SavingsEnabled    bool   `json:"savings_enabled"`
	SavingsPercent    string `json:"savings_percent"`
	CorePercent       string `json:"core_percent"`
	SatellitePercent  string `json:"satellite_percent"`
	CoreMethodID      string `json:"core_method_id"`
	SatelliteMethodID string `json:"satellite_method_id"`

	Allocations []allocationRequest `json:"allocations"`
}

type allocationRequest struct {
	CategoryID string `json:"category_id"`
	Percent    string `json:"percent"`
}

func (req ruleRequest) toRule(userID string) (*core.SplitRule, error) {
	rule := &core.SplitRule{
		UserID: userID,
		Name:   sanitizeInput(req.Name),

		TitheEnabled:  req.TitheEnabled,
		TitheMethodID: req.TitheMethodID,

		SavingsEnabled:    req.SavingsEnabled,
		CoreMethodID:      req.CoreMethodID,
		SatelliteMethodID: req.SatelliteMethodID,
	}

	var err error
	if rule.TithePercent, err = parseOptionalPercent(req.TithePercent); err != nil {
		return nil, err
	}
	if rule.SavingsPercent, err = parseOptionalPercent(req.SavingsPercent); err != nil {
		return nil, err
	}
	if rule.CorePercent, err = parseOptionalPercent(req.CorePercent); err != nil {
		return nil, err
	}
	if rule.SatellitePercent, err = parseOptionalPercent(req.SatellitePercent); err != nil {
		return nil, err
	}

	rule.Allocations = make([]core.RuleAllocation, len(req.Allocations))
	for i, a := range req.Allocations {
		percent, err := core.ParsePercent(a.Percent)
		if err != nil {
			return nil, err
		}
		rule.Allocations[i] = core.RuleAllocation{CategoryID: a.CategoryID, Percent: percent}
	}
	return rule, nil
}

type ruleResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`

	TitheEnabled  bool    `json:"tithe_enabled"`
	TithePercent  float64 `json:"tithe_percent"`
	TitheMethodID string  `json:"tithe_method_id,omitempty"`

	SavingsEnabled    bool    `json:"savings_enabled"`
	SavingsPercent    float64 `json:"savings_percent"`
	CorePercent       float64 `json:"core_percent"`
	SatellitePercent  float64 `json:"satellite_percent"`
	CoreMethodID      string  `json:"core_method_id,omitempty"`
	SatelliteMethodID string  `json:"satellite_method_id,omitempty"`

	Allocations []allocationResponse `json:"allocations"`
}

type allocationResponse struct {
	CategoryID string  `json:"category_id"`
	Percent    float64 `json:"percent"`
}

func toRuleResponse(r *core.SplitRule) ruleResponse {
	resp := ruleResponse{
		ID:       r.ID,
		Name:     r.Name,
		IsActive: r.Active,

		TitheEnabled:  r.TitheEnabled,
		TithePercent:  r.TithePercent.Float(),
		TitheMethodID: r.TitheMethodID,

		SavingsEnabled:    r.SavingsEnabled,
		SavingsPercent:    r.SavingsPercent.Float(),
		CorePercent:       r.CorePercent.Float(),
		SatellitePercent:  r.SatellitePercent.Float(),
		CoreMethodID:      r.CoreMethodID,
		SatelliteMethodID: r.SatelliteMethodID,

		Allocations: make([]allocationResponse, len(r.Allocations)),
	}
	for i, a := range r.Allocations {
		resp.Allocations[i] = allocationResponse{CategoryID: a.CategoryID, Percent: a.Percent.Float()}
	}
	return resp
}

type previewRequest struct {
	RuleID string `json:"rule_id"`
	Amount string `json:"amount"`
}

type allocationAmountResponse struct {
	CategoryID string  `json:"category_id"`
	Percent    float64 `json:"percent"`
	Amount     string  `json:"amount"`
}

type previewResponse struct {
	Gross string `json:"gross"`
	Tithe string `json:"tithe"`

	Savings   string `json:"savings"`
	Core      string `json:"core"`
	Satellite string `json:"satellite"`

	Net        string                     `json:"net"`
	Categories []allocationAmountResponse `json:"categories"`
}

func toPreviewResponse(res *core.AllocationResult) previewResponse {
	resp := previewResponse{
		Gross:      res.Gross.Decimal(),
		Tithe:      res.Tithe.Decimal(),
		Savings:    res.Savings.Decimal(),
		Core:       res.Core.Decimal(),
		Satellite:  res.Satellite.Decimal(),
		Net:        res.Net.Decimal(),
		Categories: make([]allocationAmountResponse, len(res.Categories)),
	}
	for i, c := range res.Categories {
		resp.Categories[i] = allocationAmountResponse{
			CategoryID: c.CategoryID,
			Percent:    c.Percent.Float(),
			Amount:     c.Amount.Decimal(),
		}
	}
	return resp
}

type goalRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount"`
	TargetDate    string `json:"target_date"`
}

func (req goalRequest) toGoal(userID string) (*core.FinancialGoal, error) {
	target, err := core.ParseMoney(req.TargetAmount)
	if err != nil {
		return nil, err
	}
	current, err := parseOptionalMoney(req.CurrentAmount)
	if err != nil {
		return nil, err
	}
	g := &core.FinancialGoal{
		UserID:        userID,
		Name:          sanitizeInput(req.Name),
		Description:   sanitizeInput(req.Description),
		TargetAmount:  target,
		CurrentAmount: current,
	}
	if req.TargetDate != "" {
		date, err := time.Parse(dateLayout, req.TargetDate)
		if err != nil {
			return nil, core.ErrZeroDate
		}
		g.TargetDate = date
	}
	return g, nil
}

type goalResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount"`
	TargetDate    string `json:"target_date,omitempty"`
}

func toGoalResponse(g *core.FinancialGoal) goalResponse {
	resp := goalResponse{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		TargetAmount:  g.TargetAmount.Decimal(),
		CurrentAmount: g.CurrentAmount.Decimal(),
	}
	if !g.TargetDate.IsZero() {
		resp.TargetDate = g.TargetDate.Format(dateLayout)
	}
	return resp
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotificationResponse(n *core.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

type dayTotalResponse struct {
	Day      int    `json:"day"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
}

type dashboardResponse struct {
	Year        int                      `json:"year"`
	Month       int                      `json:"month"`
	Income      string                   `json:"income"`
	Expenses    string                   `json:"expenses"`
	Balance     string                   `json:"balance"`
	SavingsRate float64                  `json:"savings_rate"`
	Days        []dayTotalResponse       `json:"days"`
	Budgets     []budgetProgressResponse `json:"budgets"`
}

func toDashboardResponse(s core.MonthSummary, progress []core.BudgetProgress) dashboardResponse {
	resp := dashboardResponse{
		Year:        s.Year,
		Month:       s.Month,
		Income:      s.Income.Decimal(),
		Expenses:    s.Expenses.Decimal(),
		Balance:     s.Balance.Decimal(),
		SavingsRate: s.SavingsRate.Float(),
		Days:        make([]dayTotalResponse, len(s.Days)),
		Budgets:     toBudgetProgressResponses(progress),
	}
	for i, d := range s.Days {
		resp.Days[i] = dayTotalResponse{Day: d.Day, Income: d.Income.Decimal(), Expenses: d.Expenses.Decimal()}
	}
	return resp
}

// parseOptionalMoney treats an empty string as zero; amounts are otherwise
// required to be positive.
func parseOptionalMoney(s string) (core.Money, error) {
	if strings.TrimSpace(s) == "" {
		return core.Money{}, nil
	}
	return core.ParseMoney(s)
}

func parseOptionalPercent(s string) (core.Percent, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return core.ParsePercent(s)
}

// sanitizeInput removes control characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
