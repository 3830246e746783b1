package service

import (
	"fmt"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"
)

// PageLimits bounds list and history queries.
type PageLimits struct {
	DefaultPageSize int
	MaxPageSize     int
	DefaultHistory  int
	MaxHistory      int
}

func DefaultPageLimits() PageLimits {
	return PageLimits{DefaultPageSize: 50, MaxPageSize: 1000, DefaultHistory: 100, MaxHistory: 1000}
}

// Normalize applies the default page size and rejects out-of-range windows.
func (l PageLimits) Normalize(p repository.Page) (repository.Page, error) {
	if p.Skip < 0 {
		return p, apperror.Validation("skip must not be negative", "skip")
	}
	if p.Limit < 0 || p.Limit > l.MaxPageSize {
		return p, apperror.Validation(fmt.Sprintf("limit must be between 1 and %d", l.MaxPageSize), "limit")
	}
	if p.Limit == 0 {
		p.Limit = l.DefaultPageSize
	}
	return p, nil
}

func (l PageLimits) history(limit int) (int, error) {
	if limit < 0 || limit > l.MaxHistory {
		return 0, apperror.Validation(fmt.Sprintf("limit must be between 1 and %d", l.MaxHistory), "limit")
	}
	if limit == 0 {
		return l.DefaultHistory, nil
	}
	return limit, nil
}
