package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alignstack-labs/tokalign/pkg/align"
)

// SaveFileResult appends one per-file record to a run. Undefined scores
// are stored as NULL, never 0.
func (s *SQLiteStore) SaveFileResult(runID string, fr align.FileResult) error {
	if err := s.ready(); err != nil {
		return err
	}
	byType, err := json.Marshal(fr.ByType)
	if err != nil {
		return fmt.Errorf("encode by_type: %w", err)
	}
	byDepth, err := json.Marshal(fr.ByDepthBucket)
	if err != nil {
		return fmt.Errorf("encode by_depth_bucket: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO file_results
		 (run_id, file_id, language, model, total_rules, aligned_rules, rule_score, boundary_score,
		  grammar_boundaries, mismatched_boundaries, byte_size, duration_ms, by_type, by_depth_bucket)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, fr.FileID, fr.Language, fr.Model, fr.TotalRules, fr.AlignedRules,
		scoreValue(fr.RuleScore), scoreValue(fr.BoundaryScore),
		fr.GrammarBoundaries, fr.MismatchedBoundaries, fr.ByteSize, fr.DurationMS,
		string(byType), string(byDepth),
	)
	if err != nil {
		return fmt.Errorf("save file result %s: %w", fr.FileID, err)
	}
	return nil
}

// FileResults returns every per-file record of a run, ordered by file ID
// then model for reproducible output.
func (s *SQLiteStore) FileResults(runID string) ([]align.FileResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT file_id, language, model, total_rules, aligned_rules, rule_score, boundary_score,
		        grammar_boundaries, mismatched_boundaries, byte_size, duration_ms, by_type, by_depth_bucket
		 FROM file_results WHERE run_id = ? ORDER BY file_id, model`, runID)
	if err != nil {
		return nil, fmt.Errorf("load file results: %w", err)
	}
	defer rows.Close()

	var out []align.FileResult
	for rows.Next() {
		var fr align.FileResult
		var ruleScore, boundaryScore sql.NullFloat64
		var byType, byDepth string
		if err := rows.Scan(&fr.FileID, &fr.Language, &fr.Model, &fr.TotalRules, &fr.AlignedRules,
			&ruleScore, &boundaryScore, &fr.GrammarBoundaries, &fr.MismatchedBoundaries,
			&fr.ByteSize, &fr.DurationMS, &byType, &byDepth); err != nil {
			return nil, fmt.Errorf("scan file result: %w", err)
		}
		fr.RuleScore = scoreFromNull(ruleScore)
		fr.BoundaryScore = scoreFromNull(boundaryScore)
		if err := json.Unmarshal([]byte(byType), &fr.ByType); err != nil {
			return nil, fmt.Errorf("decode by_type: %w", err)
		}
		if err := json.Unmarshal([]byte(byDepth), &fr.ByDepthBucket); err != nil {
			return nil, fmt.Errorf("decode by_depth_bucket: %w", err)
		}
		out = append(out, fr)
	}
	return out, rows.Err()
}

// SaveLanguageResult records one (language, model) aggregate for a run.
func (s *SQLiteStore) SaveLanguageResult(runID string, lr align.LanguageResult) error {
	if err := s.ready(); err != nil {
		return err
	}
	byType, err := json.Marshal(lr.ByType)
	if err != nil {
		return fmt.Errorf("encode by_type: %w", err)
	}
	byDepth, err := json.Marshal(lr.ByDepthBucket)
	if err != nil {
		return fmt.Errorf("encode by_depth_bucket: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO language_results
		 (run_id, language, model, files, excluded_files, total_rules, aligned_rules,
		  grammar_boundaries, mismatched_boundaries, byte_size, duration_ms, by_type, by_depth_bucket)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, lr.Language, lr.Model, lr.Files, lr.ExcludedFiles, lr.TotalRules, lr.AlignedRules,
		lr.GrammarBoundaries, lr.MismatchedBoundaries, lr.ByteSize, lr.DurationMS,
		string(byType), string(byDepth),
	)
	if err != nil {
		return fmt.Errorf("save language result %s/%s: %w", lr.Model, lr.Language, err)
	}
	return nil
}

// LanguageResults returns a run's aggregates, ordered by model then
// language for reproducible output.
func (s *SQLiteStore) LanguageResults(runID string) ([]align.LanguageResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT language, model, files, excluded_files, total_rules, aligned_rules,
		        grammar_boundaries, mismatched_boundaries, byte_size, duration_ms, by_type, by_depth_bucket
		 FROM language_results WHERE run_id = ? ORDER BY model, language`, runID)
	if err != nil {
		return nil, fmt.Errorf("load language results: %w", err)
	}
	defer rows.Close()

	var out []align.LanguageResult
	for rows.Next() {
		var lr align.LanguageResult
		var byType, byDepth string
		if err := rows.Scan(&lr.Language, &lr.Model, &lr.Files, &lr.ExcludedFiles,
			&lr.TotalRules, &lr.AlignedRules, &lr.GrammarBoundaries, &lr.MismatchedBoundaries,
			&lr.ByteSize, &lr.DurationMS, &byType, &byDepth); err != nil {
			return nil, fmt.Errorf("scan language result: %w", err)
		}
		if err := json.Unmarshal([]byte(byType), &lr.ByType); err != nil {
			return nil, fmt.Errorf("decode by_type: %w", err)
		}
		if err := json.Unmarshal([]byte(byDepth), &lr.ByDepthBucket); err != nil {
			return nil, fmt.Errorf("decode by_depth_bucket: %w", err)
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

// RecordError appends one per-file failure to the run's error list.
func (s *SQLiteStore) RecordError(runID string, fe align.FileError) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO run_errors (run_id, file_id, language, model, kind, message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, fe.FileID, fe.Language, fe.Model, string(fe.Kind), fe.Message,
	)
	if err != nil {
		return fmt.Errorf("record error for %s: %w", fe.FileID, err)
	}
	return nil
}

// Errors returns a run's recorded per-file failures in insertion order.
func (s *SQLiteStore) Errors(runID string) ([]align.FileError, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT file_id, language, model, kind, message FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load run errors: %w", err)
	}
	defer rows.Close()

	var out []align.FileError
	for rows.Next() {
		var fe align.FileError
		var kind string
		if err := rows.Scan(&fe.FileID, &fe.Language, &fe.Model, &kind, &fe.Message); err != nil {
			return nil, fmt.Errorf("scan run error: %w", err)
		}
		fe.Kind = align.ErrorKind(kind)
		out = append(out, fe)
	}
	return out, rows.Err()
}

func scoreValue(s align.Score) any {
	if !s.Defined {
		return nil
	}
	return s.Percent
}

func scoreFromNull(v sql.NullFloat64) align.Score {
	if !v.Valid {
		return align.Score{}
	}
	return align.DefinedScore(v.Float64)
}
