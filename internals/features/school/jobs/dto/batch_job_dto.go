package dto

import (
	"strings"

	"github.com/google/uuid"

	"sekolahku_backend/internals/features/school/jobs/service"
)

type StartReportCardsRequest struct {
	AcademicYearID uuid.UUID `json:"academic_year_id" validate:"required"`
	Term           string    `json:"term" validate:"omitempty,max=40"`
}

func (r *StartReportCardsRequest) Normalize() {
	r.Term = strings.TrimSpace(r.Term)
}

func (r *StartReportCardsRequest) ToFilter() service.ReportCardFilter {
	return service.ReportCardFilter{
		AcademicYearID: r.AcademicYearID,
		Term:           r.Term,
	}
}
