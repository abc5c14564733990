package dialect

import (
	"errors"
	"strings"
	"testing"
)

func TestTemplate_EveryDialectAnswersEveryOperation(t *testing.T) {
	for _, d := range All {
		for _, op := range Operations {
			stmt := Template(d, op, Args{Name: "orders", Object: ObjectTable, Limit: 10})
			if strings.TrimSpace(stmt.SQL) == "" {
				t.Errorf("Template(%s, %s) returned empty SQL", d, op)
			}
		}
		p := For(d)
		if len(p.CreateDatabase("x")) == 0 || len(p.DropDatabase("x")) == 0 {
			t.Errorf("%s: create/drop database templates are empty", d)
		}
		for _, obj := range []ObjectType{ObjectTable, ObjectView, ObjectProcedure, ObjectFunction, ObjectTrigger} {
			if _, ok := p.ShowCreate(obj, "x"); !ok {
				t.Errorf("%s: showCreate(%s) unsupported", d, obj)
			}
		}
	}
}

func TestTemplate_Placeholders(t *testing.T) {
	cases := []struct {
		d    Dialect
		want string
	}{
		{MySQL, "TABLE_NAME = ?"},
		{Postgres, "table_name = $1"},
		{SQLServer, "TABLE_NAME = @p1"},
	}
	for _, c := range cases {
		stmt := Template(c.d, OpListPrimaryKeys, Args{Name: "orders"})
		if !strings.Contains(stmt.SQL, c.want) {
			t.Errorf("%s listPrimaryKeys SQL %q does not contain %q", c.d, stmt.SQL, c.want)
		}
		if len(stmt.Args) != 1 || stmt.Args[0] != "orders" {
			t.Errorf("%s listPrimaryKeys args = %v, want [orders]", c.d, stmt.Args)
		}
	}
}

func TestTemplate_SelectTop(t *testing.T) {
	cases := []struct {
		d    Dialect
		want string
	}{
		{MySQL, "SELECT * FROM `orders` LIMIT 5"},
		{Postgres, `SELECT * FROM "orders" LIMIT 5`},
		{SQLServer, "SELECT TOP 5 * FROM [orders]"},
	}
	for _, c := range cases {
		got := Template(c.d, OpSelectTop, Args{Name: "orders", Limit: 5}).SQL
		if got != c.want {
			t.Errorf("%s selectTop = %q, want %q", c.d, got, c.want)
		}
	}
	if got := Template(MySQL, OpSelectTop, Args{Name: "t"}).SQL; got != "SELECT * FROM `t` LIMIT 100" {
		t.Errorf("default limit: got %q", got)
	}
}

func TestTemplate_CallTemplates(t *testing.T) {
	cases := []struct {
		d        Dialect
		op       Operation
		expected string
	}{
		{MySQL, OpCallProcedure, "CALL `refresh`()"},
		{Postgres, OpCallProcedure, `CALL "refresh"()`},
		{SQLServer, OpCallProcedure, "EXEC [refresh]"},
		{MySQL, OpCallFunction, "SELECT `refresh`()"},
		{SQLServer, OpCallFunction, "SELECT dbo.[refresh]()"},
		{MySQL, OpCountRows, "SELECT COUNT(*) AS count FROM `refresh`"},
	}
	for _, c := range cases {
		if got := Template(c.d, c.op, Args{Name: "refresh"}).SQL; got != c.expected {
			t.Errorf("Template(%s, %s) = %q, want %q", c.d, c.op, got, c.expected)
		}
	}
}

func TestTemplate_ShowCreateMySQL(t *testing.T) {
	got := Template(MySQL, OpShowCreate, Args{Object: ObjectView, Name: "v_orders"}).SQL
	if got != "SHOW CREATE VIEW `v_orders`" {
		t.Errorf("got %q", got)
	}
}

func TestTemplate_DropDatabase(t *testing.T) {
	pg := For(Postgres).DropDatabase("shop")
	if len(pg) != 2 || !strings.Contains(pg[0].SQL, "pg_terminate_backend") || pg[1].SQL != `DROP DATABASE "shop"` {
		t.Errorf("postgres drop = %+v", pg)
	}
	ms := For(SQLServer).DropDatabase("shop")
	if len(ms) != 2 || !strings.Contains(ms[0].SQL, "SINGLE_USER WITH ROLLBACK IMMEDIATE") || ms[1].SQL != "DROP DATABASE [shop]" {
		t.Errorf("sqlserver drop = %+v", ms)
	}
}

func TestTemplate_UnknownPairPanics(t *testing.T) {
	cases := []struct {
		name string
		fn   func()
	}{
		{"unknown dialect", func() { Template(Dialect("oracle"), OpListTables, Args{}) }},
		{"unknown operation", func() { Template(MySQL, Operation("explode"), Args{}) }},
		{"unknown object", func() { Template(Postgres, OpShowCreate, Args{Object: "sequence", Name: "s"}) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				var target *UnsupportedOperationError
				if !ok || !errors.As(err, &target) {
					t.Fatalf("expected UnsupportedOperationError panic, got %v", r)
				}
			}()
			c.fn()
		})
	}
}

func TestQuoteIdent_EscapesQuoteChar(t *testing.T) {
	cases := []struct {
		d    Dialect
		in   string
		want string
	}{
		{MySQL, "a`b", "`a``b`"},
		{Postgres, `a"b`, `"a""b"`},
		{SQLServer, "a]b", "[a]]b]"},
	}
	for _, c := range cases {
		if got := c.d.QuoteIdent(c.in); got != c.want {
			t.Errorf("%s.QuoteIdent(%q) = %q, want %q", c.d, c.in, got, c.want)
		}
	}
}

func TestParse(t *testing.T) {
	cases := map[string]Dialect{
		"mysql":      MySQL,
		"postgres":   Postgres,
		"PostgreSQL": Postgres,
		"mssql":      SQLServer,
		"sqlserver":  SQLServer,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil || got != want {
			t.Errorf("Parse(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := Parse("oracle"); err == nil {
		t.Error("Parse(oracle) should fail")
	}
}

func TestStatement_InlineSinglePass(t *testing.T) {
	cases := []struct {
		d    Dialect
		stmt Statement
		want string
	}{
		{MySQL, Statement{SQL: "SELECT * FROM t WHERE a = ? AND b = ?", Args: []any{"why?", 2}},
			"SELECT * FROM t WHERE a = 'why?' AND b = 2"},
		{Postgres, Statement{SQL: "SELECT $1, $2, $10", Args: []any{"cost $2", nil, 1, 2, 3, 4, 5, 6, 7, "ten"}},
			"SELECT 'cost $2', NULL, 'ten'"},
		{SQLServer, Statement{SQL: "SELECT @p1, @p2", Args: []any{"o'brien @p2", 5}},
			"SELECT 'o''brien @p2', 5"},
		{Postgres, Statement{SQL: "SELECT $1, $3", Args: []any{1}},
			"SELECT 1, $3"},
	}
	for _, c := range cases {
		if got := c.stmt.Inline(c.d); got != c.want {
			t.Errorf("%s Inline(%q) = %q, want %q", c.d, c.stmt.SQL, got, c.want)
		}
	}
}
