package services

import (
	"context"
	"fmt"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle links that already exist during import.
type ConflictStrategy string

const (
	// ConflictSkip leaves an existing active link of the same type untouched.
	ConflictSkip ConflictStrategy = "skip"
	// ConflictOverwrite re-links, replacing the existing record's properties.
	ConflictOverwrite ConflictStrategy = "overwrite"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Validate without saving
	OnConflict ConflictStrategy // How to handle existing links
}

// ImportError represents an error for a specific link during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []ImportError
}

// ImportService creates links in bulk from parsed rows.
type ImportService struct {
	links *RelationService
}

// NewImportService creates a new import service.
func NewImportService(links *RelationService) *ImportService {
	return &ImportService{links: links}
}

// pendingLink is a validated import row.
type pendingLink struct {
	line      int
	from, to  *entities.EntityRef
	typ       string
	reverse   string
	createdBy string
	simple    bool
}

// Import validates every row, then links the valid ones in input order.
// A store failure aborts the import; rows already linked stay linked.
func (s *ImportService) Import(ctx context.Context, raw []parsers.RawLink, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	pending, validationErrors := s.validateLinks(raw)
	result.Errors = validationErrors

	if len(pending) == 0 {
		return result, nil
	}

	if opts.DryRun {
		result.Imported = len(pending)
		return result, nil
	}

	for _, p := range pending {
		imported, err := s.importLink(ctx, p, opts.OnConflict)
		if err != nil {
			return result, fmt.Errorf("line %d: %w", p.line, err)
		}
		if imported {
			result.Imported++
		} else {
			result.Skipped++
		}
	}

	return result, nil
}

func (s *ImportService) importLink(ctx context.Context, p pendingLink, onConflict ConflictStrategy) (bool, error) {
	if p.simple {
		if onConflict == ConflictSkip {
			exists, err := s.links.IsLinkedSimple(ctx, p.from, p.to, p.typ)
			if err != nil || exists {
				return false, err
			}
		}
		return s.links.LinkSimple(ctx, p.from, p.to, p.typ)
	}

	if onConflict == ConflictSkip {
		exists, err := s.links.IsLinked(ctx, p.from, p.to, p.typ)
		if err != nil || exists {
			return false, err
		}
	}
	mainID, _, err := s.links.Link(ctx, p.from, p.to, p.typ, p.reverse, entities.Properties{CreatedBy: p.createdBy})
	if err != nil {
		return false, err
	}
	return mainID != "", nil
}

// validateLinks validates raw rows and returns the valid ones with any errors.
func (s *ImportService) validateLinks(raw []parsers.RawLink) ([]pendingLink, []ImportError) {
	valid := make([]pendingLink, 0, len(raw))
	var errors []ImportError

	for i := range raw {
		r := &raw[i]
		lineNum := r.LineNum
		if lineNum == 0 {
			lineNum = i + 1
		}

		p, err := validateRawLink(r, lineNum)
		if err != nil {
			errors = append(errors, *err)
			continue
		}
		valid = append(valid, p)
	}

	return valid, errors
}

// validateRawLink validates a single row and returns an error if invalid.
func validateRawLink(raw *parsers.RawLink, lineNum int) (pendingLink, *ImportError) {
	if raw.From == "" {
		return pendingLink{}, &ImportError{Line: lineNum, Field: "from", Message: "missing required field: from"}
	}
	if raw.To == "" {
		return pendingLink{}, &ImportError{Line: lineNum, Field: "to", Message: "missing required field: to"}
	}
	if raw.Type == "" {
		return pendingLink{}, &ImportError{Line: lineNum, Field: "type", Message: "missing required field: type"}
	}

	from, err := entities.ParseEntityRef(raw.From)
	if err != nil {
		return pendingLink{}, &ImportError{Line: lineNum, Field: "from", Value: raw.From, Message: err.Error()}
	}
	to, err := entities.ParseEntityRef(raw.To)
	if err != nil {
		return pendingLink{}, &ImportError{Line: lineNum, Field: "to", Value: raw.To, Message: err.Error()}
	}
	if raw.Simple && raw.CreatedBy != "" {
		return pendingLink{}, &ImportError{
			Line:    lineNum,
			Field:   "created_by",
			Value:   raw.CreatedBy,
			Message: "simple links carry no properties",
		}
	}

	return pendingLink{
		line:      lineNum,
		from:      from,
		to:        to,
		typ:       raw.Type,
		reverse:   raw.Reverse,
		createdBy: raw.CreatedBy,
		simple:    raw.Simple,
	}, nil
}
