package session

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DefaultSettingsFields are the scanner parameters used to detect distinct
// acquisitions sharing a protocol name.
var DefaultSettingsFields = []string{
	"ScanOptions",
	"MRAcquisitionType",
	"SequenceName",
	"AngioFlag",
	"SliceThickness",
	"AcquisitionMatrix",
	"RepetitionTime",
	"InversionTime",
	"NumberOfAverages",
	"ImagingFrequency",
	"ImagedNucleus",
	"MagneticFieldStrength",
	"NumberOfPhaseEncodingSteps",
	"EchoTrainLength",
	"EchoTime",
	"PercentSampling",
	"PercentPhaseFieldOfView",
	"PixelBandwidth",
	"ReceiveCoilName",
	"TransmitCoilName",
	"FlipAngle",
	"ReconstructionDiameter",
	"InPlanePhaseEncodingDirection",
	"ParallelReductionFactorInPlane",
	"ParallelAcquisitionTechnique",
	"TriggerTime",
	"SAR",
	"dBdt",
	"GradientEchoTrainLength",
	"SpoilingRFPhaseAngle",
	"DiffusionBValue",
	"PartialFourierDirection",
	"MultibandFactor",
}

// DefaultProtocolFields derive the acquisition base label.
var DefaultProtocolFields = []string{FieldProtocolName}

// DefaultRunGroupFields identify one temporal run group.
var DefaultRunGroupFields = []string{"PatientName", "PatientID", FieldProtocolName, "StudyDate"}

// GrouperConfig selects the fields driving acquisition and run assignment.
// Empty slices fall back to the package defaults. Configured fields absent
// from the table are skipped, never an error.
type GrouperConfig struct {
	SettingsFields []string
	ProtocolFields []string
	RunGroupFields []string
}

// Grouper assigns Acquisition labels and RunNumbers to a session table in a
// single pass: complete parameter signatures are built upfront per protocol,
// then temporally distinct repetitions are numbered within each signature.
type Grouper struct {
	config GrouperConfig
	log    *zap.Logger
}

func NewGrouper(config GrouperConfig, logger *zap.Logger) *Grouper {
	if len(config.SettingsFields) == 0 {
		config.SettingsFields = DefaultSettingsFields
	}
	if len(config.ProtocolFields) == 0 {
		config.ProtocolFields = DefaultProtocolFields
	}
	if len(config.RunGroupFields) == 0 {
		config.RunGroupFields = DefaultRunGroupFields
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Grouper{config: config, log: logger}
}

// Assign labels every row with Acquisition and RunNumber. It never fails:
// missing fields degrade to coarser grouping and a fully labeled table is
// always produced.
func (g *Grouper) Assign(table *Table) {
	if table == nil || len(table.Rows) == 0 {
		return
	}
	g.ensureProtocolName(table)
	g.assignAcquisitions(table)
	g.assignRuns(table)
}

// ensureProtocolName backfills the protocol name from the series description,
// then a literal Unknown, so every row can join a protocol partition.
func (g *Grouper) ensureProtocolName(table *Table) {
	for _, row := range table.Rows {
		name, ok := row[FieldProtocolName].(string)
		if ok && name != "" {
			continue
		}
		if fallback, ok := row[FieldSeriesDescription].(string); ok && fallback != "" {
			row[FieldProtocolName] = fallback
			continue
		}
		row[FieldProtocolName] = "Unknown"
	}
}

func (g *Grouper) assignAcquisitions(table *Table) {
	protocolOrder, protocolRows := partitionRows(table.Rows, func(row Record) string {
		name, _ := row[FieldProtocolName].(string)
		return name
	})

	for _, protocol := range protocolOrder {
		rows := protocolRows[protocol]
		base := g.baseLabel(rows[0])
		splitFields := g.splitFields(rows)

		if len(splitFields) == 0 {
			for _, row := range rows {
				row[FieldAcquisition] = base
			}
			continue
		}

		// Stable, sorted enumeration of distinct parameter tuples: each
		// distinct tuple receives the next 1-based counter.
		signatureKeys := make([]string, 0)
		seen := map[string]struct{}{}
		for _, row := range rows {
			key := CompositeKey(row, splitFields)
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}
			signatureKeys = append(signatureKeys, key)
		}
		sort.Strings(signatureKeys)

		numberByKey := make(map[string]int, len(signatureKeys))
		for index, key := range signatureKeys {
			numberByKey[key] = index + 1
		}
		g.log.Debug("protocol signatures built",
			zap.String("protocol", protocol),
			zap.Int("rows", len(rows)),
			zap.Int("signatures", len(signatureKeys)))

		for _, row := range rows {
			label := base
			if len(signatureKeys) > 1 {
				label = base + "-" + strconv.Itoa(numberByKey[CompositeKey(row, splitFields)])
			}
			row[FieldAcquisition] = label
		}
	}
}

// baseLabel builds "acq-" + cleaned protocol field values joined by "-",
// substituting NA for absent values.
func (g *Grouper) baseLabel(row Record) string {
	parts := make([]string, 0, len(g.config.ProtocolFields))
	for _, field := range g.config.ProtocolFields {
		value := row[field]
		if value == nil {
			parts = append(parts, "NA")
			continue
		}
		parts = append(parts, FormatValue(value))
	}
	return "acq-" + CleanLabel(strings.Join(parts, "-"))
}

// splitFields keeps only the configured settings fields that actually vary
// within the protocol partition. A field with a single distinct value never
// contributes to signature splitting; it is still validated downstream.
func (g *Grouper) splitFields(rows []Record) []string {
	var fields []string
	for _, field := range g.config.SettingsFields {
		distinct := map[string]struct{}{}
		present := false
		for _, row := range rows {
			value, ok := row[field]
			if !ok || value == nil {
				continue
			}
			present = true
			distinct[Key(value)] = struct{}{}
			if len(distinct) > 1 {
				break
			}
		}
		if present && len(distinct) > 1 {
			fields = append(fields, field)
		}
	}
	return fields
}

func (g *Grouper) assignRuns(table *Table) {
	for _, row := range table.Rows {
		row[FieldRunNumber] = 1
	}

	runKeys := make([]string, 0, len(g.config.RunGroupFields)+1)
	for _, field := range g.config.RunGroupFields {
		if table.HasField(field) {
			runKeys = append(runKeys, field)
		}
	}
	runKeys = append(runKeys, FieldAcquisition)

	order, groups := partitionRows(table.Rows, func(row Record) string {
		return CompositeKey(row, runKeys)
	})

	for _, groupKey := range order {
		rows := groups[groupKey]
		differentiator := FieldSeriesInstanceUID
		if rowsHaveField(rows, FieldSeriesTime) {
			differentiator = FieldSeriesTime
		}

		seriesOrder, seriesGroups := partitionRows(rows, func(row Record) string {
			return Key(row[FieldSeriesDescription])
		})
		for _, seriesKey := range seriesOrder {
			seriesRows := seriesGroups[seriesKey]
			points := distinctValues(seriesRows, differentiator)
			if len(points) < 2 {
				continue
			}
			SortValues(points)
			g.log.Debug("temporal runs detected",
				zap.String("acquisition", asString(seriesRows[0][FieldAcquisition])),
				zap.Int("runs", len(points)))
			numberByPoint := make(map[string]int, len(points))
			for index, point := range points {
				numberByPoint[Key(point)] = index + 1
			}
			for _, row := range seriesRows {
				// Rows without the order field keep their initialized run 1.
				value, ok := row[differentiator]
				if !ok || value == nil {
					continue
				}
				row[FieldRunNumber] = numberByPoint[Key(value)]
			}
		}
	}
}

// partitionRows splits rows by key, preserving first-encounter order of keys
// and table order within each partition.
func partitionRows(rows []Record, keyOf func(Record) string) ([]string, map[string][]Record) {
	order := make([]string, 0)
	groups := map[string][]Record{}
	for _, row := range rows {
		key := keyOf(row)
		if _, exists := groups[key]; !exists {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}
	return order, groups
}

func rowsHaveField(rows []Record, name string) bool {
	for _, row := range rows {
		if value, ok := row[name]; ok && value != nil {
			return true
		}
	}
	return false
}

// distinctValues returns the distinct values of a field across rows in
// first-encounter order, deduplicated by canonical key.
func distinctValues(rows []Record, name string) []any {
	seen := map[string]struct{}{}
	var values []any
	for _, row := range rows {
		value, ok := row[name]
		if !ok || value == nil {
			continue
		}
		key := Key(value)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		values = append(values, value)
	}
	return values
}

// DistinctValues is the exported form used by the compliance engine.
func DistinctValues(rows []Record, name string) []any {
	return distinctValues(rows, name)
}

// RowsHaveField reports whether any of the rows carries the field.
func RowsHaveField(rows []Record, name string) bool {
	return rowsHaveField(rows, name)
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}
