package reference

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	apperrors "github.com/ethan-saco/radiololgy-ct-protocoling/pkg/errors"
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/utils"
)

// Canonical institutional column names, after header normalization. The
// underscore spellings ("IV_Contrast") normalize to the same keys.
const (
	columnProtocol     = "protocol"
	columnIVContrast   = "iv contrast"
	columnOralContrast = "oral contrast"
	columnAcquisitions = "acquisitions"
	columnIndications  = "example indications"
	columnNotes        = "notes"
)

// CSVLoader reads the protocol reference table from the institutional CSV.
// Every failure mode is recoverable: callers get a typed reference error and
// degrade to the sentinel rather than aborting.
type CSVLoader struct {
	path string
}

// NewCSVLoader creates a loader bound to a reference CSV path.
func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{path: path}
}

// Path returns the source file path.
func (l *CSVLoader) Path() string {
	return l.path
}

// Load reads and parses the full reference table.
func (l *CSVLoader) Load(ctx context.Context) (*entities.ProtocolTable, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, apperrors.NewReferenceError("failed to open protocol reference", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewReferenceError("failed to read protocol reference header", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[utils.NormalizeHeader(name)] = i
	}
	if _, ok := columns[columnProtocol]; !ok {
		return nil, apperrors.NewReferenceError("protocol reference is missing the Protocol column", nil)
	}

	var (
		protocols []*entities.Protocol
		seen      = make(map[string]bool)
		line      = 1
	)
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewReferenceError("failed to parse protocol reference row", err)
		}

		field := func(column string) string {
			idx, ok := columns[column]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		name := field(columnProtocol)
		if name == "" {
			log.Warn().
				Str("path", l.path).
				Int("line", line).
				Msg("Skipping protocol reference row with blank protocol name")
			continue
		}

		key := strings.ToLower(name)
		if seen[key] {
			log.Warn().
				Str("path", l.path).
				Str("protocol", name).
				Int("line", line).
				Msg("Duplicate protocol name in reference, keeping the later row")
		}
		seen[key] = true

		protocols = append(protocols, &entities.Protocol{
			Name:         name,
			IVContrast:   field(columnIVContrast),
			OralContrast: field(columnOralContrast),
			Acquisitions: field(columnAcquisitions),
			Indications:  field(columnIndications),
			Notes:        field(columnNotes),
		})
	}

	if len(protocols) == 0 {
		return nil, apperrors.NewReferenceError("protocol reference contains no usable rows", nil)
	}

	return entities.NewProtocolTable(protocols), nil
}

// GetByName loads the table and looks up a single protocol.
func (l *CSVLoader) GetByName(ctx context.Context, name string) (*entities.Protocol, error) {
	table, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := table.GetByName(name)
	if !ok {
		return nil, apperrors.NewNotFoundError("protocol not found: " + name)
	}
	return p, nil
}
