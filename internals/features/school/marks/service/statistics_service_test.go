package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sekolahku_backend/internals/features/school/marks/service"
)

func marksOf(values ...float64) []service.StudentMark {
	rows := make([]service.StudentMark, len(values))
	for i, v := range values {
		rows[i] = service.StudentMark{
			EnrollmentID: uuid.New(),
			MarksheetID:  uuid.New(),
			Obtained:     v,
			Max:          100,
		}
	}
	return rows
}

func findAnomaly(t *testing.T, st service.SubjectStatistics, typ string) *service.Anomaly {
	t.Helper()
	for i := range st.Anomalies {
		if st.Anomalies[i].Type == typ {
			return &st.Anomalies[i]
		}
	}
	return nil
}

func TestComputeStatisticsEmpty(t *testing.T) {
	st := service.ComputeStatistics(nil)
	assert.Zero(t, st.Count)
	assert.Zero(t, st.Mean)
	assert.Nil(t, st.Min)
	assert.Nil(t, st.Max)
	assert.Empty(t, st.Anomalies)
	assert.Zero(t, st.GradeDistribution["A"])
}

func TestComputeStatisticsHealthyClass(t *testing.T) {
	rows := marksOf(80, 70, 60, 90, 100)
	st := service.ComputeStatistics(rows)

	assert.Equal(t, 5, st.Count)
	assert.InDelta(t, 80.0, st.Mean, 0.001)
	assert.InDelta(t, 80.0, st.Median, 0.001)
	assert.InDelta(t, 14.142, st.StdDev, 0.01)
	assert.Equal(t, 100.0, st.PassRate)

	assert.Equal(t, 3, st.GradeDistribution["A"])
	assert.Equal(t, 2, st.GradeDistribution["B"])
	assert.Zero(t, st.GradeDistribution["F"])

	require.NotNil(t, st.Min)
	assert.Equal(t, 60.0, st.Min.Value)
	assert.Equal(t, rows[2].EnrollmentID, st.Min.EnrollmentID)
	require.NotNil(t, st.Max)
	assert.Equal(t, 100.0, st.Max.Value)
	assert.Equal(t, rows[4].EnrollmentID, st.Max.EnrollmentID)

	// satu-satunya flag: nilai sempurna (informasional)
	perfect := findAnomaly(t, st, service.AnomalyPerfectScore)
	require.NotNil(t, perfect)
	assert.Equal(t, service.SeverityInfo, perfect.Severity)
	assert.Equal(t, []uuid.UUID{rows[4].EnrollmentID}, perfect.EnrollmentIDs)
	assert.Nil(t, findAnomaly(t, st, service.AnomalyZeroMarks))
	assert.Nil(t, findAnomaly(t, st, service.AnomalyHighFailureRate))
	assert.Nil(t, findAnomaly(t, st, service.AnomalyOutliers))
}

func TestComputeStatisticsAllZeroMarks(t *testing.T) {
	rows := marksOf(0, 0, 0)
	st := service.ComputeStatistics(rows)

	assert.Zero(t, st.Mean)
	assert.Zero(t, st.PassRate)
	assert.Equal(t, 3, st.GradeDistribution["F"])

	zero := findAnomaly(t, st, service.AnomalyZeroMarks)
	require.NotNil(t, zero)
	assert.Equal(t, service.SeverityWarning, zero.Severity)
	assert.Len(t, zero.EnrollmentIDs, 3)

	// semua gagal → pass rate di bawah ambang kritis
	hf := findAnomaly(t, st, service.AnomalyHighFailureRate)
	require.NotNil(t, hf)
	assert.Equal(t, service.SeverityCritical, hf.Severity)

	// nilai 0 bukan outlier statistik
	assert.Nil(t, findAnomaly(t, st, service.AnomalyOutliers))
}

func TestComputeStatisticsHighFailureRateThreshold(t *testing.T) {
	// 2 lulus dari 5 → 40% < 50% → critical
	st := service.ComputeStatistics(marksOf(80, 75, 20, 15, 10))
	assert.Equal(t, 40.0, st.PassRate)
	require.NotNil(t, findAnomaly(t, st, service.AnomalyHighFailureRate))

	// tepat 50% → tidak kena flag
	st = service.ComputeStatistics(marksOf(80, 75, 20, 15))
	assert.Equal(t, 50.0, st.PassRate)
	assert.Nil(t, findAnomaly(t, st, service.AnomalyHighFailureRate))
}

func TestComputeStatisticsOutlierDetection(t *testing.T) {
	// sepuluh nilai 80 + satu nilai 8 — jauh di bawah mean-2σ tapi bukan nol
	rows := marksOf(80, 80, 80, 80, 80, 80, 80, 80, 80, 80, 8)
	st := service.ComputeStatistics(rows)

	out := findAnomaly(t, st, service.AnomalyOutliers)
	require.NotNil(t, out)
	assert.Equal(t, service.SeverityWarning, out.Severity)
	assert.Equal(t, []uuid.UUID{rows[10].EnrollmentID}, out.EnrollmentIDs)

	// 10/11 lulus — bukan kelas gagal massal
	assert.Nil(t, findAnomaly(t, st, service.AnomalyHighFailureRate))

	require.NotNil(t, st.Min)
	assert.Equal(t, 8.0, st.Min.Value)
	assert.Equal(t, rows[10].EnrollmentID, st.Min.EnrollmentID)
}

func TestSubjectStatisticsScopedQuery(t *testing.T) {
	db := setupDB(t)
	svc := service.NewMarksheetService(db, &recordingNotifier{})
	actor := newActor()

	subjectID := uuid.New()

	m, err := svc.Create(actor, service.CreateInput{
		SubjectID:      subjectID,
		AcademicYearID: uuid.New(),
		EnrollmentID:   uuid.New(),
		Term:           "term-1",
	})
	require.NoError(t, err)
	_, err = svc.BulkUpsertMarks(actor, m.MarksheetID, []service.BulkEntryItem{
		{SubjectID: subjectID, MarksObtained: 90, MaxMarks: 100},
	})
	require.NoError(t, err)

	// sekolah lain, subject sama — tidak boleh ikut terhitung
	other := newActor()
	om, err := svc.Create(other, service.CreateInput{
		SubjectID:      subjectID,
		AcademicYearID: uuid.New(),
		EnrollmentID:   uuid.New(),
		Term:           "term-1",
	})
	require.NoError(t, err)
	_, err = svc.BulkUpsertMarks(other, om.MarksheetID, []service.BulkEntryItem{
		{SubjectID: subjectID, MarksObtained: 10, MaxMarks: 100},
	})
	require.NoError(t, err)

	st, err := svc.SubjectStatistics(actor, subjectID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Count)
	assert.Equal(t, 90.0, st.Mean)
}
