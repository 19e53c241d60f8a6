package ingest

import (
	"context"
	"errors"
	"maps"
	"strings"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/ports"
)

// upsert writes one mapped record inside its own unit of work so that a later
// failure never rolls back records already stored.
func (s *Service) upsert(ctx context.Context, mapping Mapping, record Record, policy MergePolicy) (UpsertOutcome, error) {
	if strings.TrimSpace(record.ExternalID) == "" {
		return "", riskhub.ErrMissingExternalID
	}

	var outcome UpsertOutcome
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		id, err := s.records.FindIDByExternalID(txCtx, mapping.Entity, record.ExternalID)
		switch {
		case errors.Is(err, ports.ErrRecordNotFound):
			values := maps.Clone(record.Values)
			if mapping.Derive != nil {
				mapping.Derive(values)
			}
			if _, err := s.records.Create(txCtx, mapping.Entity, values); err != nil {
				return errs.Wrapf(err, "create %s %q", mapping.Entity, record.ExternalID)
			}
			outcome = OutcomeCreated
			return nil
		case err != nil:
			return errs.Wrapf(err, "find %s %q", mapping.Entity, record.ExternalID)
		}

		values := writeSet(record.Values, policy)
		if mapping.Derive != nil {
			mapping.Derive(values)
		}
		if err := s.records.Update(txCtx, mapping.Entity, id, values); err != nil {
			return errs.Wrapf(err, "update %s %q", mapping.Entity, record.ExternalID)
		}
		outcome = OutcomeUpdated
		return nil
	})
	if err != nil {
		return "", errs.Mark(err, riskhub.ErrStoreWrite)
	}
	return outcome, nil
}

// writeSet selects the columns an update writes under policy. The external id
// is the match key and is never rewritten.
func writeSet(values ports.Assignments, policy MergePolicy) ports.Assignments {
	out := make(ports.Assignments, len(values))
	for column, value := range values {
		if column == columnExternalID {
			continue
		}
		if policy == MergeNonNull && value == nil {
			continue
		}
		out[column] = value
	}
	return out
}
