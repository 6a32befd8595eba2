package ingest

import (
	"context"
	"fmt"

	"github.com/nuralia/clinic-crm/internal/store"
)

// ResolveIdentifiers builds the natural-key → surrogate-key map for one
// tier by re-selecting the whole table after its insert step. Surrogate
// keys are store-generated, so a round trip is the only way to learn
// them. The map is always rebuilt from scratch: incremental building
// would go stale the moment a filtered or partial insert happens.
//
// Reads are paginated because the store caps rows per call.
func ResolveIdentifiers(ctx context.Context, st store.Store, table, keyColumn string, pageSize int) (IdentifierMap, error) {
	if pageSize <= 0 {
		pageSize = 1000
	}

	ids := make(IdentifierMap)
	offset := 0
	for {
		page, err := st.Select(ctx, table, []string{"id", keyColumn}, offset, pageSize)
		if err != nil {
			return nil, fmt.Errorf("resolve %s identifiers: %w", table, err)
		}

		for _, row := range page {
			key := asString(row[keyColumn])
			if key == "" {
				continue
			}
			ids[key] = asString(row["id"])
		}

		if len(page) < pageSize {
			return ids, nil
		}
		offset += pageSize
	}
}

// asString renders a store value as a string key. Surrogate ids come back
// as int64 from the store driver, natural keys as text.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
