package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Memberships memverifikasi keanggotaan sebelum membaca timeline.
type Memberships interface {
	RequireMember(ctx context.Context, businessID, userID uuid.UUID) error
}

// Service mengoordinasikan pengambilan timeline aktivitas. Sisi baca murni:
// logika inti tidak pernah membaca kembali activity_logs.
type Service struct {
	repo        Repository
	memberships Memberships
}

// NewService membuat service timeline baru.
func NewService(repo Repository, memberships Memberships) *Service {
	return &Service{repo: repo, memberships: memberships}
}

// Timeline mengambil aktivitas satu bisnis dengan paging.
func (s *Service) Timeline(ctx context.Context, actor, businessID uuid.UUID, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	if err := s.memberships.RequireMember(ctx, businessID, actor); err != nil {
		return Result{}, err
	}

	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	// Ambil satu baris ekstra untuk mendeteksi halaman berikutnya.
	rows, err := s.repo.TimelineWindow(ctx, businessID, filters, offset, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}
