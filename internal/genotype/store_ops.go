package genotype

import (
	"context"
	"fmt"
	"strings"

	"bardo/internal/model"
	"bardo/internal/storage"
)

// Record table names accepted by Read/Write/Delete.
const (
	RecordTableGenome     = "genome"
	RecordTablePopulation = "population"
	RecordTableScape      = "scape"
)

// RecordKey identifies one stored record by table and ID.
type RecordKey struct {
	Table string
	ID    string
}

// Read dispatches to the store method matching key.Table.
func Read(ctx context.Context, store storage.Store, key RecordKey) (any, bool, error) {
	if store == nil {
		return nil, false, fmt.Errorf("store is required")
	}
	if key.ID == "" {
		return nil, false, fmt.Errorf("record id is required")
	}
	switch normalizeRecordTable(key.Table) {
	case RecordTableGenome:
		return store.GetGenome(ctx, key.ID)
	case RecordTablePopulation:
		return store.GetPopulation(ctx, key.ID)
	case RecordTableScape:
		return store.GetScapeSummary(ctx, key.ID)
	default:
		return nil, false, fmt.Errorf("unsupported record table: %s", key.Table)
	}
}

// DirtyRead is an alias for Read; this store layer has no separate
// dirty/transactional read path, so callers of either get the same result.
func DirtyRead(ctx context.Context, store storage.Store, key RecordKey) (any, bool, error) {
	return Read(ctx, store, key)
}

// Write saves record, dispatching on its concrete type (genome, population,
// or scape summary, by value or pointer).
func Write(ctx context.Context, store storage.Store, record any) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	switch rec := record.(type) {
	case model.Genome:
		return store.SaveGenome(ctx, rec)
	case *model.Genome:
		if rec == nil {
			return fmt.Errorf("record is required")
		}
		return store.SaveGenome(ctx, *rec)
	case model.Population:
		return store.SavePopulation(ctx, rec)
	case *model.Population:
		if rec == nil {
			return fmt.Errorf("record is required")
		}
		return store.SavePopulation(ctx, *rec)
	case model.ScapeSummary:
		return store.SaveScapeSummary(ctx, rec)
	case *model.ScapeSummary:
		if rec == nil {
			return fmt.Errorf("record is required")
		}
		return store.SaveScapeSummary(ctx, *rec)
	default:
		return fmt.Errorf("unsupported record type: %T", record)
	}
}

// DirtyWrite is an alias for Write; see DirtyRead.
func DirtyWrite(ctx context.Context, store storage.Store, record any) error {
	return Write(ctx, store, record)
}

// Delete removes the record named by key, dispatching on key.Table.
// Scape summaries have no delete path, since scapes are accumulated
// read-side artifacts rather than independently-owned records.
func Delete(ctx context.Context, store storage.Store, key RecordKey) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	if key.ID == "" {
		return fmt.Errorf("record id is required")
	}
	switch normalizeRecordTable(key.Table) {
	case RecordTableGenome:
		return store.DeleteGenome(ctx, key.ID)
	case RecordTablePopulation:
		return store.DeletePopulation(ctx, key.ID)
	case RecordTableScape:
		return fmt.Errorf("delete is not supported for record table: %s", key.Table)
	default:
		return fmt.Errorf("unsupported record table: %s", key.Table)
	}
}

// DirtyDelete is an alias for Delete; see DirtyRead.
func DirtyDelete(ctx context.Context, store storage.Store, key RecordKey) error {
	return Delete(ctx, store, key)
}

func normalizeRecordTable(table string) string {
	return strings.ToLower(strings.TrimSpace(table))
}
