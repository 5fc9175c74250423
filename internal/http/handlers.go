package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"familybudget/internal/auth"
	"familybudget/internal/board"
	"familybudget/internal/core"
	"familybudget/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeBoardError maps domain errors onto HTTP statuses: validation
// failures are 400, a missing current period is 409, missing documents
// are 404, and auth rejections are 403.
func (s *Server) writeBoardError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrUnknownCadence),
		errors.Is(err, core.ErrUnknownPaymentMethod),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, board.ErrUnknownView):
		status = http.StatusBadRequest
	case errors.Is(err, board.ErrNoActivePayPeriod):
		status = http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, auth.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrIndexUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"url", r.URL.Path,
			"error", err)
	}
	writeError(w, r, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(t), nil
}

// Dashboard

type gaugeDTO struct {
	Status  string  `json:"status"`
	Color   string  `json:"color"`
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

type progressDTO struct {
	CurrentDay    int `json:"current_day"`
	TotalDays     int `json:"total_days"`
	DaysRemaining int `json:"days_remaining"`
}

type nextPaycheckDTO struct {
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	Display    string  `json:"display"`
	Sources    string  `json:"sources"`
	IsCombined bool    `json:"is_combined"`
}

type periodDTO struct {
	ID                      string  `json:"id"`
	StartDate               string  `json:"start_date"`
	EndDate                 string  `json:"end_date"`
	StartingCheckingBalance float64 `json:"starting_checking_balance"`
	PaycheckAmount          float64 `json:"paycheck_amount"`
	PaycheckSource          string  `json:"paycheck_source"`
	MortgageCarveout        float64 `json:"mortgage_carveout"`
	SavingsAmount           float64 `json:"savings_amount"`
	OneTimeIncome           float64 `json:"one_time_income"`
}

type transactionDTO struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	Display       string  `json:"display"`
	PaymentMethod string  `json:"payment_method"`
	CreatedAt     string  `json:"created_at"`
}

type oneTimeIncomeDTO struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Display     string  `json:"display"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

type sourceDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	PayAmount       float64 `json:"pay_amount"`
	Cadence         string  `json:"cadence"`
	NextPayDate     string  `json:"next_pay_date,omitempty"`
	SemimonthlyDays *[2]int `json:"semimonthly_days,omitempty"`
	IsActive        bool    `json:"is_active"`
}

type cardTotalDTO struct {
	Method     string  `json:"method"`
	Total      float64 `json:"total"`
	Display    string  `json:"display"`
	Overridden bool    `json:"overridden"`
}

type paycheckViewDTO struct {
	AvailableBudget  float64 `json:"available_budget"`
	RemainingBudget  float64 `json:"remaining_budget"`
	RemainingDisplay string  `json:"remaining_display"`
	TotalSpending    float64 `json:"total_spending"`
	TotalIncome      float64 `json:"total_income"`
	OneTimeIncome    float64 `json:"one_time_income"`
	MortgageCarveout float64 `json:"mortgage_carveout"`
	SavingsAmount    float64 `json:"savings_amount"`
}

type checkingViewDTO struct {
	ProjectedChecking float64 `json:"projected_checking"`
	ProjectedDisplay  string  `json:"projected_display"`
	TotalSpending     float64 `json:"total_spending"`
	TotalIncome       float64 `json:"total_income"`
	OneTimeIncome     float64 `json:"one_time_income"`
	MortgageCarveout  float64 `json:"mortgage_carveout"`
	SavingsAmount     float64 `json:"savings_amount"`
}

type dashboardResponse struct {
	View          string             `json:"view"`
	Period        *periodDTO         `json:"period"`
	Paycheck      paycheckViewDTO    `json:"paycheck"`
	Checking      checkingViewDTO    `json:"checking"`
	Gauge         gaugeDTO           `json:"gauge"`
	Progress      progressDTO        `json:"progress"`
	NextPaycheck  *nextPaycheckDTO   `json:"next_paycheck"`
	CheckingFloor float64            `json:"checking_floor"`
	CardTotals    []cardTotalDTO     `json:"card_totals"`
	Transactions  []transactionDTO   `json:"transactions"`
	Overrides     map[string]float64 `json:"overrides"`
	OneTimeItems  []oneTimeIncomeDTO `json:"one_time_income_items"`
	Sources       []sourceDTO        `json:"income_sources"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	vm := s.board.Dashboard()

	resp := dashboardResponse{
		View:          string(vm.View),
		CheckingFloor: vm.CheckingFloor,
		Overrides:     map[string]float64{},
		Paycheck: paycheckViewDTO{
			AvailableBudget:  vm.Paycheck.AvailableBudget,
			RemainingBudget:  vm.Paycheck.RemainingBudget,
			RemainingDisplay: core.FormatCurrency(vm.Paycheck.RemainingBudget),
			TotalSpending:    vm.Paycheck.TotalSpending,
			TotalIncome:      vm.Paycheck.TotalIncome,
			OneTimeIncome:    vm.Paycheck.OneTimeIncome,
			MortgageCarveout: vm.Paycheck.MortgageCarveout,
			SavingsAmount:    vm.Paycheck.SavingsAmount,
		},
		Checking: checkingViewDTO{
			ProjectedChecking: vm.Checking.ProjectedChecking,
			ProjectedDisplay:  core.FormatCurrency(vm.Checking.ProjectedChecking),
			TotalSpending:     vm.Checking.TotalSpending,
			TotalIncome:       vm.Checking.TotalIncome,
			OneTimeIncome:     vm.Checking.OneTimeIncome,
			MortgageCarveout:  vm.Checking.MortgageCarveout,
			SavingsAmount:     vm.Checking.SavingsAmount,
		},
		Gauge: gaugeDTO{
			Status:  string(vm.Gauge.Status),
			Color:   vm.Gauge.Color,
			Label:   vm.Gauge.Label,
			Percent: vm.GaugePercent,
		},
		Progress: progressDTO{
			CurrentDay:    vm.Progress.CurrentDay,
			TotalDays:     vm.Progress.TotalDays,
			DaysRemaining: vm.Progress.DaysRemaining,
		},
	}

	if vm.Period != nil {
		resp.Period = &periodDTO{
			ID:                      vm.Period.ID,
			StartDate:               vm.Period.StartDate.Format(time.DateOnly),
			EndDate:                 vm.Period.EndDate.Format(time.DateOnly),
			StartingCheckingBalance: vm.Period.StartingCheckingBalance,
			PaycheckAmount:          vm.Period.PaycheckAmount,
			PaycheckSource:          vm.Period.PaycheckSource,
			MortgageCarveout:        vm.Period.MortgageCarveout,
			SavingsAmount:           vm.Period.SavingsAmount,
			OneTimeIncome:           vm.Period.OneTimeIncome,
		}
	}
	if vm.NextPaycheck != nil {
		resp.NextPaycheck = &nextPaycheckDTO{
			Date:       vm.NextPaycheck.Date.Format(time.DateOnly),
			Amount:     vm.NextPaycheck.Amount,
			Display:    core.FormatCurrency(vm.NextPaycheck.Amount),
			Sources:    vm.NextPaycheck.SourceNames,
			IsCombined: vm.NextPaycheck.IsCombined,
		}
	}

	for _, method := range core.PaymentMethods {
		total := vm.Paycheck.CardTotals[method]
		_, overridden := vm.Overrides.Lookup(method)
		resp.CardTotals = append(resp.CardTotals, cardTotalDTO{
			Method:     string(method),
			Total:      total,
			Display:    core.FormatCurrency(total),
			Overridden: overridden,
		})
	}
	for m, v := range vm.Overrides {
		resp.Overrides[string(m)] = v
	}
	for _, t := range vm.Transactions {
		resp.Transactions = append(resp.Transactions, transactionDTO{
			ID:            t.ID,
			Amount:        t.Amount,
			Display:       core.FormatCurrency(t.Amount),
			PaymentMethod: string(t.PaymentMethod),
			CreatedAt:     t.CreatedAt.Format(time.RFC3339),
		})
	}
	for _, item := range vm.OneTimeItems {
		resp.OneTimeItems = append(resp.OneTimeItems, oneTimeIncomeDTO{
			ID:          item.ID,
			Amount:      item.Amount,
			Display:     core.FormatCurrency(item.Amount),
			Description: item.Description,
			Date:        item.Date.Format(time.DateOnly),
		})
	}
	resp.Sources = sourcesToDTO(vm.Sources)

	writeJSON(w, http.StatusOK, resp)
}

func sourcesToDTO(sources []core.IncomeSource) []sourceDTO {
	out := make([]sourceDTO, 0, len(sources))
	for _, src := range sources {
		dto := sourceDTO{
			ID:              src.ID,
			Name:            src.Name,
			PayAmount:       src.PayAmount,
			Cadence:         string(src.Cadence),
			SemimonthlyDays: src.SemimonthlyDays,
			IsActive:        src.IsActive,
		}
		if !src.NextPayDate.IsZero() {
			dto.NextPayDate = src.NextPayDate.Format(time.DateOnly)
		}
		out = append(out, dto)
	}
	return out
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View string `json:"view"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.board.SetView(board.View(req.View)); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"view": req.View})
}

// Pay periods

func (s *Server) handleStartPeriod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate               string  `json:"start_date"`
		StartingCheckingBalance float64 `json:"starting_checking_balance"`
		PaycheckAmount          float64 `json:"paycheck_amount"`
		PaycheckSource          string  `json:"paycheck_source"`
		SavingsAmount           float64 `json:"savings_amount"`
		MortgageCarveout        float64 `json:"mortgage_carveout"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid start_date: "+err.Error())
		return
	}

	id, err := s.board.StartPayPeriod(r.Context(), board.StartPeriodInput{
		StartDate:               start,
		StartingCheckingBalance: req.StartingCheckingBalance,
		PaycheckAmount:          req.PaycheckAmount,
		PaycheckSource:          req.PaycheckSource,
		SavingsAmount:           req.SavingsAmount,
		MortgageCarveout:        req.MortgageCarveout,
	})
	if err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdatePeriod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate               *string  `json:"start_date"`
		EndDate                 *string  `json:"end_date"`
		StartingCheckingBalance *float64 `json:"starting_checking_balance"`
		PaycheckAmount          *float64 `json:"paycheck_amount"`
		PaycheckSource          *string  `json:"paycheck_source"`
		MortgageCarveout        *float64 `json:"mortgage_carveout"`
		SavingsAmount           *float64 `json:"savings_amount"`
		OneTimeIncome           *float64 `json:"one_time_income"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	upd := store.PayPeriodUpdate{
		StartingCheckingBalance: req.StartingCheckingBalance,
		PaycheckAmount:          req.PaycheckAmount,
		PaycheckSource:          req.PaycheckSource,
		MortgageCarveout:        req.MortgageCarveout,
		SavingsAmount:           req.SavingsAmount,
		OneTimeIncome:           req.OneTimeIncome,
	}
	if req.StartDate != nil {
		d, err := parseDate(*req.StartDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid start_date: "+err.Error())
			return
		}
		upd.StartDate = &d
	}
	if req.EndDate != nil {
		d, err := parseDate(*req.EndDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid end_date: "+err.Error())
			return
		}
		upd.EndDate = &d
	}

	if err := s.board.UpdatePayPeriod(r.Context(), r.PathValue("id"), upd); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transactions

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount        float64 `json:"amount"`
		PaymentMethod string  `json:"payment_method"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := s.board.AddTransaction(r.Context(), req.Amount, core.PaymentMethod(req.PaymentMethod))
	if err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount        float64 `json:"amount"`
		PaymentMethod string  `json:"payment_method"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	err := s.board.UpdateTransaction(r.Context(), r.PathValue("id"), req.Amount, core.PaymentMethod(req.PaymentMethod))
	if err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.board.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Overrides

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Total float64 `json:"total"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	method := core.PaymentMethod(r.PathValue("method"))
	if err := s.board.SetOverride(r.Context(), method, req.Total); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	method := core.PaymentMethod(r.PathValue("method"))
	if err := s.board.ClearOverride(r.Context(), method); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Income sources

type incomeSourceRequest struct {
	Name            string  `json:"name"`
	PayAmount       float64 `json:"pay_amount"`
	Cadence         string  `json:"cadence"`
	NextPayDate     string  `json:"next_pay_date"`
	SemimonthlyDays *[2]int `json:"semimonthly_days"`
	IsActive        *bool   `json:"is_active"`
}

func (s *Server) handleListIncomeSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sourcesToDTO(s.board.Dashboard().Sources))
}

func (s *Server) handleAddIncomeSource(w http.ResponseWriter, r *http.Request) {
	var req incomeSourceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	src := core.IncomeSource{
		Name:            req.Name,
		PayAmount:       req.PayAmount,
		Cadence:         core.Cadence(req.Cadence),
		SemimonthlyDays: req.SemimonthlyDays,
		IsActive:        true,
	}
	if req.IsActive != nil {
		src.IsActive = *req.IsActive
	}
	if req.NextPayDate != "" {
		d, err := parseDate(req.NextPayDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid next_pay_date: "+err.Error())
			return
		}
		src.NextPayDate = d
	}

	id, err := s.board.AddIncomeSource(r.Context(), src)
	if err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateIncomeSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            *string  `json:"name"`
		PayAmount       *float64 `json:"pay_amount"`
		Cadence         *string  `json:"cadence"`
		NextPayDate     *string  `json:"next_pay_date"`
		SemimonthlyDays *[2]int  `json:"semimonthly_days"`
		IsActive        *bool    `json:"is_active"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	upd := store.IncomeSourceUpdate{
		Name:            req.Name,
		PayAmount:       req.PayAmount,
		SemimonthlyDays: req.SemimonthlyDays,
		IsActive:        req.IsActive,
	}
	if req.Cadence != nil {
		c := core.Cadence(*req.Cadence)
		upd.Cadence = &c
	}
	if req.NextPayDate != nil {
		d, err := parseDate(*req.NextPayDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid next_pay_date: "+err.Error())
			return
		}
		upd.NextPayDate = &d
	}

	if err := s.board.UpdateIncomeSource(r.Context(), r.PathValue("id"), upd); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteIncomeSource(w http.ResponseWriter, r *http.Request) {
	if err := s.board.DeleteIncomeSource(r.Context(), r.PathValue("id")); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// One-time income

func (s *Server) handleAddOneTimeIncome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Date        string  `json:"date"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date: "+err.Error())
		return
	}

	id, err := s.board.AddOneTimeIncome(r.Context(), req.Amount, req.Description, date)
	if err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteOneTimeIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.board.DeleteOneTimeIncome(r.Context(), r.PathValue("id")); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// App config

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	vm := s.board.Dashboard()
	writeJSON(w, http.StatusOK, map[string]float64{"checking_floor": vm.CheckingFloor})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CheckingFloor float64 `json:"checking_floor"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.board.UpdateAppConfig(r.Context(), req.CheckingFloor); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveLegacyConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName         string  `json:"first_name"`
		FirstPayAmount    float64 `json:"first_pay_amount"`
		FirstNextPayDate  string  `json:"first_next_pay_date"`
		SecondName        string  `json:"second_name"`
		SecondPayAmount   float64 `json:"second_pay_amount"`
		SecondNextPayDate string  `json:"second_next_pay_date"`
		CheckingFloor     float64 `json:"checking_floor"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cfg := core.LegacyIncomeConfig{
		FirstName:       req.FirstName,
		FirstPayAmount:  req.FirstPayAmount,
		SecondName:      req.SecondName,
		SecondPayAmount: req.SecondPayAmount,
		CheckingFloor:   req.CheckingFloor,
	}
	if req.FirstNextPayDate != "" {
		d, err := parseDate(req.FirstNextPayDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid first_next_pay_date: "+err.Error())
			return
		}
		cfg.FirstNextPayDate = d
	}
	if req.SecondNextPayDate != "" {
		d, err := parseDate(req.SecondNextPayDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid second_next_pay_date: "+err.Error())
			return
		}
		cfg.SecondNextPayDate = d
	}

	if err := s.board.SaveLegacyIncomeConfig(r.Context(), cfg); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
