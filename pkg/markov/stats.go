package markov

import (
	"context"
	"sort"
)

// DBStats holds aggregated statistics for the store, including a list of
// all tables and their individual stats.
type DBStats struct {
	Tables     []TableInfo        // Every stored table, ordered by identifier
	Stats      map[int]TableStats // A mapping of table ids to their stats
	TableCount int                // The number of stored tables
}

// TableStats holds aggregated statistics for a single transition table.
type TableStats struct {
	Transitions   int // The number of stored pairs.
	TotalCount    int // The sum of pair counts; zero for tables imported without counts.
	ObservedPairs int // The number of pairs with a non-zero probability.
}

// GetStats returns a snapshot of statistics for the whole store.
func (s *Store) GetStats(ctx context.Context) (*DBStats, error) {
	infos, err := s.TableInfos(ctx)
	if err != nil {
		return nil, err
	}

	var tableCount int
	if err = s.stmtTableCount.QueryRowContext(ctx).Scan(&tableCount); err != nil {
		return nil, err
	}

	tables := make([]TableInfo, 0, len(infos))
	tableStats := make(map[int]TableStats, len(infos))
	for _, v := range infos {
		tables = append(tables, v)
		var st TableStats
		if err = s.stmtTableTransitions.QueryRowContext(ctx, v.Id).Scan(&st.Transitions, &st.TotalCount); err != nil {
			return nil, err
		}
		if err = s.stmtTableObserved.QueryRowContext(ctx, v.Id).Scan(&st.ObservedPairs); err != nil {
			return nil, err
		}
		tableStats[v.Id] = st
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Identifier < tables[j].Identifier
	})

	return &DBStats{
		Tables:     tables,
		Stats:      tableStats,
		TableCount: tableCount,
	}, nil
}
