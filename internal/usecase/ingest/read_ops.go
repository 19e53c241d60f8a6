package ingest

import (
	"context"
	"errors"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/ports"
)

// ActionItemView pairs a stored action item with its overdue flag, which is
// computed against the current UTC date on every read.
type ActionItemView struct {
	riskhub.ActionItem
	Overdue bool
}

func (s *Service) ListSyncRuns(ctx context.Context, filter ports.SyncRunFilter) ([]riskhub.SyncRun, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	runs, err := s.runs.List(ctx, filter)
	if err != nil {
		return nil, errs.Wrap(err, "list sync runs")
	}
	return runs, nil
}

func (s *Service) ListAssessments(ctx context.Context, limit int) ([]ports.AssessmentSummary, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	out, err := s.reads.ListAssessments(ctx, limit)
	if err != nil {
		return nil, errs.Wrap(err, "list assessments")
	}
	return out, nil
}

func (s *Service) ListHazards(ctx context.Context, filter ports.HazardFilter) ([]riskhub.Hazard, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	out, err := s.reads.ListHazards(ctx, filter)
	if err != nil {
		return nil, errs.Wrap(err, "list hazards")
	}
	return out, nil
}

func (s *Service) ListActionItems(ctx context.Context, filter ports.ActionItemFilter) ([]ActionItemView, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	today := s.now().UTC()
	if filter.Overdue && filter.OverdueOn.IsZero() {
		filter.OverdueOn = today
	}
	items, err := s.reads.ListActionItems(ctx, filter)
	if err != nil {
		return nil, errs.Wrap(err, "list action items")
	}

	out := make([]ActionItemView, 0, len(items))
	for _, item := range items {
		out = append(out, ActionItemView{
			ActionItem: item,
			Overdue:    item.IsOverdue(today),
		})
	}
	return out, nil
}
