package service

import (
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"sekolahku_backend/internals/features/school/marks/model"
)

// Ambang lulus & severity anomali
const (
	passThresholdPct = 40.0 // lulus bila nilai ≥ 40% dari max
	failRateCritical = 50.0 // pass rate < 50% → critical

	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"

	AnomalyZeroMarks       = "zero_marks"
	AnomalyPerfectScore    = "perfect_score"
	AnomalyHighFailureRate = "high_failure_rate"
	AnomalyOutliers        = "outliers"
)

// StudentMark: satu nilai + enrollment pemiliknya (join marks ⋈ marksheets).
type StudentMark struct {
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	MarksheetID  uuid.UUID `json:"marksheet_id"`
	Obtained     float64   `json:"obtained"`
	Max          float64   `json:"max"`
}

type ExtremeMark struct {
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	Value        float64   `json:"value"`
}

// Anomaly: flag independen; beberapa bisa muncul bersamaan.
type Anomaly struct {
	Type          string      `json:"type"`
	Severity      string      `json:"severity"`
	Description   string      `json:"description"`
	EnrollmentIDs []uuid.UUID `json:"enrollment_ids,omitempty"`
}

// SubjectStatistics: agregat read-only, tidak mengubah state.
type SubjectStatistics struct {
	Count             int            `json:"count"`
	Mean              float64        `json:"mean"`
	Median            float64        `json:"median"`
	StdDev            float64        `json:"std_dev"`
	Min               *ExtremeMark   `json:"min,omitempty"`
	Max               *ExtremeMark   `json:"max,omitempty"`
	PassRate          float64        `json:"pass_rate"` // persen 0..100
	GradeDistribution map[string]int `json:"grade_distribution"`
	Anomalies         []Anomaly      `json:"anomalies"`
}

// SubjectStatistics memuat semua nilai satu subject dalam satu sekolah
// lalu menghitung agregat + anomali.
func (s *MarksheetService) SubjectStatistics(actor Actor, subjectID uuid.UUID) (*SubjectStatistics, error) {
	var rows []StudentMark
	err := s.DB.Model(&model.MarkModel{}).
		Select(`marksheets.marksheet_enrollment_id AS enrollment_id,
			marksheets.marksheet_id AS marksheet_id,
			marks.mark_marks_obtained AS obtained,
			marks.mark_max_marks AS max`).
		Joins("JOIN marksheets ON marksheets.marksheet_id = marks.mark_marksheet_id").
		Where("marks.mark_subject_id = ?", subjectID).
		Where("marksheets.marksheet_school_id = ?", actor.SchoolID).
		Where("marksheets.marksheet_deleted_at IS NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	st := ComputeStatistics(rows)
	return &st, nil
}

// ComputeStatistics: murni, tanpa DB — dipakai endpoint statistik dan job runner.
func ComputeStatistics(rows []StudentMark) SubjectStatistics {
	out := SubjectStatistics{
		GradeDistribution: map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "F": 0},
		Anomalies:         []Anomaly{},
	}
	if len(rows) == 0 {
		return out
	}

	values := make([]float64, len(rows))
	passed := 0
	var zero, perfect []uuid.UUID
	for i, r := range rows {
		values[i] = r.Obtained
		out.GradeDistribution[model.GradeFor(r.Obtained, r.Max)]++
		if r.Max > 0 && r.Obtained/r.Max*100 >= passThresholdPct {
			passed++
		}
		if r.Obtained == 0 {
			zero = append(zero, r.EnrollmentID)
		}
		if r.Max > 0 && r.Obtained == r.Max {
			perfect = append(perfect, r.EnrollmentID)
		}
	}

	out.Count = len(rows)
	out.Mean, _ = stats.Mean(values)
	out.Median, _ = stats.Median(values)
	out.StdDev, _ = stats.StandardDeviationPopulation(values)
	out.PassRate = float64(passed) / float64(len(rows)) * 100

	minIdx, maxIdx := 0, 0
	for i, v := range values {
		if v < values[minIdx] {
			minIdx = i
		}
		if v > values[maxIdx] {
			maxIdx = i
		}
	}
	out.Min = &ExtremeMark{EnrollmentID: rows[minIdx].EnrollmentID, Value: values[minIdx]}
	out.Max = &ExtremeMark{EnrollmentID: rows[maxIdx].EnrollmentID, Value: values[maxIdx]}

	if len(zero) > 0 {
		out.Anomalies = append(out.Anomalies, Anomaly{
			Type:          AnomalyZeroMarks,
			Severity:      SeverityWarning,
			Description:   "Ada nilai 0 — cek kehadiran atau kesalahan input.",
			EnrollmentIDs: zero,
		})
	}
	if len(perfect) > 0 {
		out.Anomalies = append(out.Anomalies, Anomaly{
			Type:          AnomalyPerfectScore,
			Severity:      SeverityInfo,
			Description:   "Ada nilai sempurna (sama dengan max).",
			EnrollmentIDs: perfect,
		})
	}
	if out.PassRate < failRateCritical {
		out.Anomalies = append(out.Anomalies, Anomaly{
			Type:        AnomalyHighFailureRate,
			Severity:    SeverityCritical,
			Description: "Pass rate di bawah 50% — perlu review pengajaran/penilaian.",
		})
	}

	lower := out.Mean - 2*out.StdDev
	var outliers []uuid.UUID
	for i, v := range values {
		if v > 0 && v < lower {
			outliers = append(outliers, rows[i].EnrollmentID)
		}
	}
	if len(outliers) > 0 {
		out.Anomalies = append(out.Anomalies, Anomaly{
			Type:          AnomalyOutliers,
			Severity:      SeverityWarning,
			Description:   "Ada nilai jauh di bawah rata-rata (> 2σ).",
			EnrollmentIDs: outliers,
		})
	}

	return out
}
