package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/escola-hub/escola-admin-api/internal/dto"
	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
)

// ptBRDate is the day/month/year layout used across the app's screens.
const ptBRDate = "02/01/2006"

type financeiroParcelaRepository interface {
	Ledger(ctx context.Context, filter models.ParcelaFilter) ([]models.ParcelaDetail, int, error)
	LedgerAll(ctx context.Context, filter models.ParcelaFilter) ([]models.ParcelaDetail, error)
	FindByID(ctx context.Context, id string) (*models.ParcelaDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.ParcelaStatus, paidAt *time.Time) error
}

// FinanceiroService implements the financial ledger: overdue derivation,
// period totals and installment status updates.
type FinanceiroService struct {
	repo   financeiroParcelaRepository
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
}

// NewFinanceiroService constructs the ledger service.
func NewFinanceiroService(repo financeiroParcelaRepository, cache *CacheService, logger *zap.Logger) *FinanceiroService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceiroService{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// DeriveParcelaStatus returns the display status for a stored installment:
// a due installment past its due date shows as overdue. The derived value is
// never written back to storage.
func DeriveParcelaStatus(stored models.ParcelaStatus, dueDate, today time.Time) models.ParcelaStatus {
	if stored != models.ParcelaStatusAVencer {
		return stored
	}
	due := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, time.UTC)
	ref := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if due.Before(ref) {
		return models.ParcelaStatusVencido
	}
	return stored
}

// MonthRange converts a "2006-01" month filter to an inclusive due-date
// range.
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "mês inválido, use o formato AAAA-MM")
	}
	end := start.AddDate(0, 1, -1)
	return start, end, nil
}

// Ledger returns the financial ledger for the filtered period. Entries carry
// derived statuses; totals cover the whole filtered set, not just the
// current page, and the monthly total counts each enrollment once.
func (s *FinanceiroService) Ledger(ctx context.Context, filter models.ParcelaFilter, schoolScope string) (*dto.LedgerResponse, error) {
	if schoolScope != "" {
		filter.SchoolID = schoolScope
	}

	today := s.now()
	// The derived status changes with the calendar, so cached pages carry the
	// day they were computed for.
	key := ledgerCacheKey(filter, today)
	if s.cache != nil {
		var cached dto.LedgerResponse
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	var (
		out   []dto.LedgerEntry
		total int
	)
	switch filter.Status {
	case models.ParcelaStatusVencido, models.ParcelaStatusAVencer:
		// Both labels are derived views over the stored due status, so the
		// filter must run before pagination: fetch the whole due set, keep
		// the rows whose derived status matches, then slice the page.
		storedFilter := filter
		storedFilter.Status = models.ParcelaStatusAVencer
		all, err := s.repo.LedgerAll(ctx, storedFilter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
		}
		matched := make([]dto.LedgerEntry, 0, len(all))
		for _, entry := range all {
			derived := DeriveParcelaStatus(entry.Status, entry.DueDate, today)
			if derived != filter.Status {
				continue
			}
			matched = append(matched, ledgerEntry(entry, derived))
		}
		total = len(matched)
		start := (page - 1) * size
		if start > total {
			start = total
		}
		end := start + size
		if end > total {
			end = total
		}
		out = matched[start:end]
	default:
		entries, storedTotal, err := s.repo.Ledger(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
		}
		total = storedTotal
		out = make([]dto.LedgerEntry, 0, len(entries))
		for _, entry := range entries {
			out = append(out, ledgerEntry(entry, DeriveParcelaStatus(entry.Status, entry.DueDate, today)))
		}
	}

	// Totals always cover the whole filtered period, not just one page or
	// one status.
	totalsFilter := filter
	totalsFilter.Status = ""
	all, err := s.repo.LedgerAll(ctx, totalsFilter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total ledger")
	}
	totals := ledgerTotals(all, today)

	resp := &dto.LedgerResponse{
		Entries:    out,
		Totals:     totals,
		Pagination: &models.Pagination{Page: page, PageSize: size, TotalCount: total},
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, 0); err != nil {
			s.logger.Warn("failed to cache ledger", zap.Error(err))
		}
	}
	return resp, nil
}

func ledgerCacheKey(filter models.ParcelaFilter, today time.Time) string {
	from, to := "", ""
	if filter.DueFrom != nil {
		from = filter.DueFrom.Format("2006-01-02")
	}
	if filter.DueTo != nil {
		to = filter.DueTo.Format("2006-01-02")
	}
	return cacheKey("financeiro:ledger",
		today.Format("2006-01-02"),
		filter.MatriculaID,
		filter.SchoolID,
		string(filter.Status),
		from, to,
		strconv.Itoa(filter.Page),
		strconv.Itoa(filter.PageSize),
		filter.SortBy,
		filter.SortOrder,
	)
}

// UpdateParcelaStatus stores a new installment status. The derived overdue
// label normalizes back to the stored due value, so a client echoing a
// displayed status never fails. Marking paid stamps the payment time;
// reopening clears it.
func (s *FinanceiroService) UpdateParcelaStatus(ctx context.Context, id string, status models.ParcelaStatus, schoolScope string) (*dto.LedgerEntry, error) {
	normalized := status.Normalize()
	if !normalized.Persistable() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("status de parcela inválido: %s", status))
	}

	parcela, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parcela não encontrada")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parcela")
	}
	if schoolScope != "" && parcela.SchoolID != schoolScope {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "parcela fora do escopo da escola")
	}

	var paidAt *time.Time
	if normalized == models.ParcelaStatusPago {
		ts := s.now().UTC()
		paidAt = &ts
	}

	if err := s.repo.UpdateStatus(ctx, id, normalized, paidAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update parcela status")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "financeiro:*"); err != nil {
			s.logger.Warn("failed to invalidate financeiro cache", zap.Error(err))
		}
	}

	parcela.Status = normalized
	parcela.PaidAt = paidAt
	entry := ledgerEntry(*parcela, DeriveParcelaStatus(normalized, parcela.DueDate, s.now()))
	return &entry, nil
}

func ledgerEntry(p models.ParcelaDetail, derived models.ParcelaStatus) dto.LedgerEntry {
	entry := dto.LedgerEntry{
		ID:          p.ID,
		MatriculaID: p.MatriculaID,
		StudentName: p.StudentName,
		CursoName:   p.CursoName,
		Ordinal:     p.Ordinal,
		Amount:      p.Amount,
		DueDate:     p.DueDate.Format(ptBRDate),
		Status:      derived,
	}
	if p.PaidAt != nil {
		formatted := p.PaidAt.Format(ptBRDate)
		entry.PaidAt = &formatted
	}
	return entry
}

// ledgerTotals aggregates the period. The monthly total dedupes by
// enrollment so an enrollment with several installments in the period
// contributes its installment value once.
func ledgerTotals(entries []models.ParcelaDetail, today time.Time) dto.LedgerTotals {
	totals := dto.LedgerTotals{
		TotalPago:    decimal.Zero,
		TotalAVencer: decimal.Zero,
		TotalVencido: decimal.Zero,
		TotalMensal:  decimal.Zero,
	}
	seen := make(map[string]struct{})
	for _, entry := range entries {
		switch DeriveParcelaStatus(entry.Status, entry.DueDate, today) {
		case models.ParcelaStatusPago:
			totals.TotalPago = totals.TotalPago.Add(entry.Amount)
		case models.ParcelaStatusVencido:
			totals.TotalVencido = totals.TotalVencido.Add(entry.Amount)
		default:
			totals.TotalAVencer = totals.TotalAVencer.Add(entry.Amount)
		}
		if _, ok := seen[entry.MatriculaID]; !ok {
			seen[entry.MatriculaID] = struct{}{}
			totals.TotalMensal = totals.TotalMensal.Add(entry.Amount)
		}
	}
	return totals
}
