package service

import (
	"context"
	"errors"

	"github.com/punchamoorthee/globalpay/internal/domain"
)

const MaxPageSize = 100

var ErrInvalidPage = errors.New("page must be >= 0 and page_size between 1 and 100")

// MonitorService exposes completed transfers for reporting.
type MonitorService struct {
	transfers TransferLister
}

func NewMonitorService(transfers TransferLister) *MonitorService {
	return &MonitorService{transfers: transfers}
}

func (s *MonitorService) CompletedTransfers(ctx context.Context, page, pageSize int) (domain.TransferPage, error) {
	if page < 0 || pageSize < 1 || pageSize > MaxPageSize {
		return domain.TransferPage{}, ErrInvalidPage
	}

	items, total, err := s.transfers.ListTransfers(ctx, page*pageSize, pageSize)
	if err != nil {
		return domain.TransferPage{}, err
	}
	return domain.TransferPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}
