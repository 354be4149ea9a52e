package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/utils"
)

// Input column headers, matched case-insensitively with underscores and
// spaces treated alike.
const (
	batchColumnStudyID       = "study id"
	batchColumnLocation      = "location"
	batchColumnExam          = "ct exam"
	batchColumnClinicalInfo  = "clinical info"
	batchColumnPriorReaction = "prior reaction"
	batchColumnEGFR          = "egfr"
)

// BatchSummary aggregates one batch run.
type BatchSummary struct {
	TotalProcessed int
	SuccessCount   int
	SentinelCount  int
	FailureCount   int
}

// Recommender is the slice of the recommendation pipeline the batch service
// needs: one case in, one audit record out.
type Recommender interface {
	Recommend(ctx context.Context, c *entities.PatientCase) (*entities.RecommendationRecord, error)
}

// BatchService runs a CSV of patient cases through the full pipeline with a
// fixed-size worker pool. Output rows keep the input order; per-row failures
// are recorded in the output and never abort the run.
type BatchService struct {
	pipeline    Recommender
	workerCount int
}

func NewBatchService(pipeline Recommender, workers int) *BatchService {
	if workers <= 0 {
		workers = 1
	}
	return &BatchService{
		pipeline:    pipeline,
		workerCount: workers,
	}
}

type batchJob struct {
	index int
	c     *entities.PatientCase
}

type batchRow struct {
	c      *entities.PatientCase
	record *entities.RecommendationRecord
	err    error
}

// Run reads the input CSV, processes every row, and writes the output CSV.
// It returns an error only for file-level problems; row-level failures are
// counted in the summary.
func (s *BatchService) Run(ctx context.Context, inputPath, outputPath string) (*BatchSummary, error) {
	cases, err := s.readCases(inputPath)
	if err != nil {
		return nil, err
	}

	rows := make([]batchRow, len(cases))
	var success, sentinel, failure int64

	jobChan := make(chan batchJob, s.workerCount)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				record, err := s.pipeline.Recommend(ctx, job.c)
				rows[job.index] = batchRow{c: job.c, record: record, err: err}
				switch {
				case err != nil:
					atomic.AddInt64(&failure, 1)
					log.Warn().Err(err).Str("study_id", job.c.StudyID).Msg("Batch row failed")
				case record.Sentinel:
					atomic.AddInt64(&sentinel, 1)
				default:
					atomic.AddInt64(&success, 1)
				}
			}
		}()
	}

	// Producer loop
	for i, c := range cases {
		select {
		case jobChan <- batchJob{index: i, c: c}:
		case <-ctx.Done():
			close(jobChan)
			wg.Wait()
			return nil, ctx.Err()
		}
	}

	close(jobChan)
	wg.Wait()

	if err := s.writeResults(outputPath, rows); err != nil {
		return nil, err
	}

	return &BatchSummary{
		TotalProcessed: len(cases),
		SuccessCount:   int(success),
		SentinelCount:  int(sentinel),
		FailureCount:   int(failure),
	}, nil
}

func (s *BatchService) readCases(path string) ([]*entities.PatientCase, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch input: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read batch input: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("batch input %s is empty", path)
	}

	columns := make(map[string]int, len(records[0]))
	for i, header := range records[0] {
		columns[utils.NormalizeHeader(header)] = i
	}
	if _, ok := columns[batchColumnStudyID]; !ok {
		return nil, fmt.Errorf("batch input %s is missing the Study_ID column", path)
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	cases := make([]*entities.PatientCase, 0, len(records)-1)
	for _, row := range records[1:] {
		cases = append(cases, &entities.PatientCase{
			StudyID:       field(row, batchColumnStudyID),
			Location:      field(row, batchColumnLocation),
			Exam:          field(row, batchColumnExam),
			ClinicalInfo:  field(row, batchColumnClinicalInfo),
			PriorReaction: field(row, batchColumnPriorReaction),
			EGFR:          field(row, batchColumnEGFR),
		})
	}
	return cases, nil
}

func (s *BatchService) writeResults(path string, rows []batchRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create batch output: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Study_ID", "Location", "CT_Exam", "Clinical_Info", "Prior_Reaction", "eGFR",
		"Priority", "Protocol", "IV_Contrast", "Oral_Contrast", "Sentinel", "Failure_Reason",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write batch output header: %w", err)
	}

	for _, row := range rows {
		out := []string{
			row.c.StudyID, row.c.Location, row.c.Exam,
			row.c.ClinicalInfo, row.c.PriorReaction, row.c.EGFR,
		}
		switch {
		case row.err != nil:
			out = append(out, "", "", "", "", "", row.err.Error())
		default:
			out = append(out,
				strconv.Itoa(row.record.Final.Priority),
				row.record.Final.Protocol,
				row.record.Final.IVContrast,
				row.record.Final.OralContrast,
				strconv.FormatBool(row.record.Sentinel),
				row.record.FailureReason,
			)
		}
		if err := writer.Write(out); err != nil {
			return fmt.Errorf("failed to write batch output row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
