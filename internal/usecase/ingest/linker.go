package ingest

import (
	"context"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
)

// LinkStats counts links filled in one linker pass. Pending counts the
// references that still point at parents not yet stored locally.
type LinkStats struct {
	Assessment int
	Hazard     int
	Pending    int
}

func (s *Service) link(ctx context.Context, entity riskhub.EntityType) (LinkStats, error) {
	var (
		stats LinkStats
		err   error
	)
	switch entity {
	case riskhub.EntityHazards:
		stats, err = s.linkHazards(ctx)
	case riskhub.EntityActions:
		stats, err = s.linkActions(ctx)
	default:
		return LinkStats{}, nil
	}
	return stats, errs.Mark(err, riskhub.ErrLinkFailed)
}

func (s *Service) linkHazards(ctx context.Context) (LinkStats, error) {
	var stats LinkStats

	pending, err := s.links.ListPendingHazardLinks(ctx)
	if err != nil {
		return stats, errs.Wrap(err, "list pending hazard links")
	}
	if len(pending) == 0 {
		return stats, nil
	}

	refs := make([]string, 0, len(pending))
	for _, p := range pending {
		refs = append(refs, p.AssessmentRef)
	}
	assessments, err := s.links.ResolveExternalIDs(ctx, riskhub.EntityAssessments, unique(refs))
	if err != nil {
		return stats, errs.Wrap(err, "resolve assessment refs")
	}

	for _, p := range pending {
		assessmentID, ok := assessments[p.AssessmentRef]
		if !ok {
			stats.Pending++
			continue
		}
		changed, err := s.links.SetHazardAssessment(ctx, p.HazardID, assessmentID)
		if err != nil {
			return stats, errs.Wrapf(err, "link hazard %d", p.HazardID)
		}
		if changed {
			stats.Assessment++
		}
	}
	return stats, nil
}

// linkActions resolves the assessment and hazard sides independently; one
// side staying pending never blocks the other.
func (s *Service) linkActions(ctx context.Context) (LinkStats, error) {
	var stats LinkStats

	pending, err := s.links.ListPendingActionLinks(ctx)
	if err != nil {
		return stats, errs.Wrap(err, "list pending action links")
	}
	if len(pending) == 0 {
		return stats, nil
	}

	assessmentRefs := make([]string, 0, len(pending))
	hazardRefs := make([]string, 0, len(pending))
	for _, p := range pending {
		if p.AssessmentRef != "" {
			assessmentRefs = append(assessmentRefs, p.AssessmentRef)
		}
		if p.HazardRef != "" {
			hazardRefs = append(hazardRefs, p.HazardRef)
		}
	}

	assessments, err := s.links.ResolveExternalIDs(ctx, riskhub.EntityAssessments, unique(assessmentRefs))
	if err != nil {
		return stats, errs.Wrap(err, "resolve assessment refs")
	}
	hazards, err := s.links.ResolveExternalIDs(ctx, riskhub.EntityHazards, unique(hazardRefs))
	if err != nil {
		return stats, errs.Wrap(err, "resolve hazard refs")
	}

	for _, p := range pending {
		if p.AssessmentRef != "" {
			if assessmentID, ok := assessments[p.AssessmentRef]; ok {
				changed, err := s.links.SetActionAssessment(ctx, p.ActionID, assessmentID)
				if err != nil {
					return stats, errs.Wrapf(err, "link action %d to assessment", p.ActionID)
				}
				if changed {
					stats.Assessment++
				}
			} else {
				stats.Pending++
			}
		}
		if p.HazardRef != "" {
			if hazardID, ok := hazards[p.HazardRef]; ok {
				changed, err := s.links.SetActionHazard(ctx, p.ActionID, hazardID)
				if err != nil {
					return stats, errs.Wrapf(err, "link action %d to hazard", p.ActionID)
				}
				if changed {
					stats.Hazard++
				}
			} else {
				stats.Pending++
			}
		}
	}
	return stats, nil
}

func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
