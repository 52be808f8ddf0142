package cloudsync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/frahmantamala/dealership-crm/internal"
	"github.com/goccy/go-json"
	"gorm.io/gorm/clause"
)

// Table maps one local SQLite table onto its cloud counterpart. Column names
// are local names; Renames holds the ones that differ in the cloud schema.
type Table struct {
	Local       string
	Cloud       string
	Key         string
	Columns     []string
	Renames     map[string]string
	StoreColumn string
	Bools       []string
	Ints        []string
	JSONLists   []string
	// FoldKey lower-cases the key; usernames compare case-insensitively.
	FoldKey bool

	toLocal map[string]string
	kinds   map[string]columnKind
}

type columnKind int

const (
	kindPlain columnKind = iota
	kindBool
	kindInt
	kindJSONList
)

func (t *Table) init() {
	t.toLocal = make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		t.toLocal[t.CloudColumn(c)] = c
	}
	t.kinds = make(map[string]columnKind)
	for _, c := range t.Bools {
		t.kinds[c] = kindBool
	}
	for _, c := range t.Ints {
		t.kinds[c] = kindInt
	}
	for _, c := range t.JSONLists {
		t.kinds[c] = kindJSONList
	}
}

// CloudColumn returns the cloud name of a local column.
func (t *Table) CloudColumn(local string) string {
	if renamed, ok := t.Renames[local]; ok {
		return renamed
	}
	return local
}

func (t *Table) CloudKey() string {
	return t.CloudColumn(t.Key)
}

// NormalizeKey applies the key folding rule of the table.
func (t *Table) NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if t.FoldKey {
		return strings.ToLower(key)
	}
	return key
}

// localKeyMatch matches a normalized key against the local table. Folded
// keys compare case-insensitively so rows stored before folding still match.
func (t *Table) localKeyMatch(key string) clause.Expression {
	col := clause.Column{Name: t.Key}
	if t.FoldKey {
		return clause.Expr{SQL: "LOWER(?) = ?", Vars: []any{col, key}}
	}
	return clause.Eq{Column: col, Value: key}
}

// ToCloud renames a local row for the cloud schema. Columns the table does
// not know are dropped.
func (t *Table) ToCloud(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for _, c := range t.Columns {
		v, ok := row[c]
		if !ok {
			continue
		}
		out[t.CloudColumn(c)] = t.normalize(c, v)
	}
	return out
}

// ToLocal renames a cloud row (from a query or a realtime payload) for the
// local schema.
func (t *Table) ToLocal(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for cloudCol, v := range row {
		local, ok := t.toLocal[cloudCol]
		if !ok {
			continue
		}
		out[local] = t.normalize(local, v)
	}
	return out
}

// KeyOf extracts the key of a row expressed with local column names.
func (t *Table) KeyOf(row map[string]any) (string, bool) {
	v, ok := row[t.Key]
	if !ok || v == nil {
		return "", false
	}
	key := t.NormalizeKey(fmt.Sprint(v))
	return key, key != ""
}

func (t *Table) normalize(col string, v any) any {
	if v == nil {
		return nil
	}
	if col == t.Key {
		if s, ok := v.(string); ok {
			return t.NormalizeKey(s)
		}
	}
	switch t.kinds[col] {
	case kindBool:
		return toBool(v)
	case kindInt:
		return toInt(v)
	case kindJSONList:
		return toJSONText(v)
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func toBool(v any) any {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case int:
		return b != 0
	case float64:
		return b != 0
	case []byte:
		return toBool(string(b))
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return b != "" && b != "0"
		}
		return parsed
	}
	return v
}

func toInt(v any) any {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i
		}
	}
	return v
}

// toJSONText keeps JSON arrays as text; jsonb payloads arrive decoded.
func toJSONText(v any) any {
	switch l := v.(type) {
	case string:
		return l
	case []byte:
		return string(l)
	case []any, []string:
		b, err := json.Marshal(l)
		if err != nil {
			return "[]"
		}
		return string(b)
	}
	return v
}

// Registry holds the synced tables in pull order.
type Registry struct {
	tables []*Table
	byName map[string]*Table
}

func NewRegistry(tables ...*Table) *Registry {
	r := &Registry{byName: make(map[string]*Table, len(tables)*2)}
	for _, t := range tables {
		t.init()
		r.tables = append(r.tables, t)
		r.byName[t.Local] = t
		r.byName[t.Cloud] = t
	}
	return r
}

func (r *Registry) Tables() []*Table {
	return r.tables
}

// Lookup finds a table by its local or cloud name.
func (r *Registry) Lookup(name string) (*Table, error) {
	if t, ok := r.byName[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", internal.ErrUnknownTable, name)
}

// CloudNames lists the cloud table names, used for realtime subscriptions.
func (r *Registry) CloudNames() []string {
	names := make([]string, 0, len(r.tables))
	for _, t := range r.tables {
		names = append(names, t.Cloud)
	}
	return names
}

// DefaultRegistry describes the CRM tables. Settings come first so a partial
// pull still leaves the app configured.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&Table{
			Local:       "config",
			Cloud:       "config",
			Key:         "chave",
			Columns:     []string{"chave", "valor", "loja_id", "updated_at"},
			StoreColumn: "loja_id",
		},
		&Table{
			Local:   "crm_settings",
			Cloud:   "crm_settings",
			Key:     "key",
			Columns: []string{"key", "value", "category", "updated_at"},
		},
		&Table{
			Local: "usuarios",
			Cloud: "usuarios",
			Key:   "username",
			Columns: []string{
				"username", "password", "nome", "role", "ativo", "permissions",
				"loja_id", "reset_password", "created_at", "updated_at",
			},
			Renames: map[string]string{
				"password":       "password_hash",
				"reset_password": "force_password_change",
			},
			StoreColumn: "loja_id",
			Bools:       []string{"ativo", "reset_password"},
			JSONLists:   []string{"permissions"},
			FoldKey:     true,
		},
		&Table{
			Local:       "vendedores",
			Cloud:       "vendedores",
			Key:         "id",
			Columns:     []string{"id", "nome", "telefone", "email", "ativo", "loja_id", "updated_at"},
			StoreColumn: "loja_id",
			Bools:       []string{"ativo"},
		},
		&Table{
			Local:       "portais",
			Cloud:       "portais",
			Key:         "id",
			Columns:     []string{"id", "nome", "url", "ativo", "loja_id", "updated_at"},
			StoreColumn: "loja_id",
			Bools:       []string{"ativo"},
		},
		&Table{
			Local:       "scripts",
			Cloud:       "scripts",
			Key:         "id",
			Columns:     []string{"id", "titulo", "conteudo", "categoria", "ordem", "loja_id", "updated_at"},
			StoreColumn: "loja_id",
			Ints:        []string{"ordem"},
		},
		&Table{
			Local: "estoque",
			Cloud: "estoque",
			Key:   "id",
			Columns: []string{
				"id", "nome", "marca", "modelo", "ano", "preco", "km", "cor",
				"fotos", "status", "loja_id", "created_at", "updated_at",
			},
			StoreColumn: "loja_id",
			Ints:        []string{"ano", "km"},
			JSONLists:   []string{"fotos"},
		},
		&Table{
			Local: "visitas",
			Cloud: "visitas",
			Key:   "id",
			Columns: []string{
				"id", "cliente", "telefone", "email", "veiculo_interesse", "status",
				"data_agendamento", "vendedor", "temperatura", "origem", "observacoes",
				"loja_id", "created_at", "updated_at",
			},
			StoreColumn: "loja_id",
		},
	)
}
