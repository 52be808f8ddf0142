package cloudsync

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// TableDiff compares the keys of one table on both sides.
type TableDiff struct {
	Table      string   `json:"table"`
	LocalRows  int      `json:"local_rows"`
	CloudRows  int      `json:"cloud_rows"`
	OnlyLocal  []string `json:"only_local,omitempty"`
	OnlyCloud  []string `json:"only_cloud,omitempty"`
	LocalError string   `json:"local_error,omitempty"`
	CloudError string   `json:"cloud_error,omitempty"`
}

func (d TableDiff) InSync() bool {
	return d.LocalError == "" && d.CloudError == "" && len(d.OnlyLocal) == 0 && len(d.OnlyCloud) == 0
}

// Diff reports, per table, the keys present on only one side.
func Diff(ctx context.Context, local, cloud *sqlx.DB, registry *Registry, storeID string) []TableDiff {
	diffs := make([]TableDiff, 0, len(registry.Tables()))
	for _, t := range registry.Tables() {
		d := TableDiff{Table: t.Local}

		localKeys, err := selectKeys(ctx, local, t.Local, t.Key, t.StoreColumn, storeID, t)
		if err != nil {
			d.LocalError = err.Error()
		}
		cloudKeys, err := selectKeys(ctx, cloud, t.Cloud, t.CloudKey(), t.CloudColumn(t.StoreColumn), storeID, t)
		if err != nil {
			d.CloudError = err.Error()
		}

		d.LocalRows = len(localKeys)
		d.CloudRows = len(cloudKeys)
		if d.LocalError == "" && d.CloudError == "" {
			d.OnlyLocal = missingFrom(localKeys, cloudKeys)
			d.OnlyCloud = missingFrom(cloudKeys, localKeys)
		}
		diffs = append(diffs, d)
	}
	return diffs
}

func selectKeys(ctx context.Context, db *sqlx.DB, table, key, storeColumn, storeID string, t *Table) (map[string]struct{}, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", quoteIdent(key), quoteIdent(table))
	var args []any
	if t.StoreColumn != "" && storeID != "" {
		query += fmt.Sprintf(" WHERE %s = ?", quoteIdent(storeColumn))
		args = append(args, storeID)
	}

	var keys []string
	if err := db.SelectContext(ctx, &keys, db.Rebind(query), args...); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[t.NormalizeKey(k)] = struct{}{}
	}
	return set, nil
}

func missingFrom(have, other map[string]struct{}) []string {
	var out []string
	for k := range have {
		if _, ok := other[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// quoteIdent double-quotes an identifier; SQLite and Postgres agree on it.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
