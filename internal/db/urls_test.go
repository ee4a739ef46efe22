package db

import "testing"

func TestNormalizeAsyncURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgresql://u:p@h:5432/ledger", "postgresql+asyncpg://u:p@h:5432/ledger"},
		{"postgresql+psycopg://u:p@h/ledger", "postgresql+asyncpg://u:p@h/ledger"},
		{"postgresql+asyncpg://u:p@h/ledger", "postgresql+asyncpg://u:p@h/ledger"},
		{"postgres://u:p@h/ledger", "postgresql+asyncpg://u:p@h/ledger"},
		{"sqlite:///ledger.db", "sqlite+aiosqlite:///ledger.db"},
		{"sqlite+pysqlite:///ledger.db", "sqlite+aiosqlite:///ledger.db"},
		{"sqlite+aiosqlite://", "sqlite+aiosqlite://"},
	}
	for _, tt := range tests {
		got, err := NormalizeAsyncURL(tt.in)
		if err != nil {
			t.Errorf("NormalizeAsyncURL(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeAsyncURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeSyncURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgresql+asyncpg://u:p@h/ledger", "postgresql+psycopg://u:p@h/ledger"},
		{"postgresql://u:p@h/ledger", "postgresql+psycopg://u:p@h/ledger"},
		{"sqlite+aiosqlite:///ledger.db", "sqlite+pysqlite:///ledger.db"},
		{"sqlite:///ledger.db", "sqlite+pysqlite:///ledger.db"},
	}
	for _, tt := range tests {
		got, err := NormalizeSyncURL(tt.in)
		if err != nil {
			t.Errorf("NormalizeSyncURL(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeSyncURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeURLErrors(t *testing.T) {
	bad := []string{
		"mysql://u:p@h/ledger",
		"postgresql",
		"postgresql+oracle://u:p@h/ledger",
	}
	for _, in := range bad {
		if _, err := NormalizeAsyncURL(in); err == nil {
			t.Errorf("NormalizeAsyncURL(%q): expected error", in)
		}
		if _, err := NormalizeSyncURL(in); err == nil {
			t.Errorf("NormalizeSyncURL(%q): expected error", in)
		}
	}
}

func TestRejectAsyncURL(t *testing.T) {
	if err := RejectAsyncURL("postgresql+asyncpg://u:p@h/ledger"); err == nil {
		t.Error("asyncpg should be rejected")
	}
	if err := RejectAsyncURL("sqlite+aiosqlite:///ledger.db"); err == nil {
		t.Error("aiosqlite should be rejected")
	}
	if err := RejectAsyncURL("postgresql+psycopg://u:p@h/ledger"); err != nil {
		t.Errorf("psycopg should pass: %v", err)
	}
	if err := RejectAsyncURL("sqlite:///ledger.db"); err != nil {
		t.Errorf("plain sqlite should pass: %v", err)
	}
}

func TestDriverDSN(t *testing.T) {
	tests := []struct {
		in          string
		wantDialect string
		wantDSN     string
	}{
		{"postgresql+psycopg://u:p@h:5432/ledger", DialectPostgres, "postgres://u:p@h:5432/ledger"},
		{"postgresql://u:p@h/ledger", DialectPostgres, "postgres://u:p@h/ledger"},
		{"sqlite:///ledger.db", DialectSQLite, "ledger.db"},
		{"sqlite:////var/lib/ledger.db", DialectSQLite, "/var/lib/ledger.db"},
		{"sqlite://", DialectSQLite, ":memory:"},
		{"sqlite:///:memory:", DialectSQLite, ":memory:"},
	}
	for _, tt := range tests {
		dialect, dsn, err := DriverDSN(tt.in)
		if err != nil {
			t.Errorf("DriverDSN(%q): %v", tt.in, err)
			continue
		}
		if dialect != tt.wantDialect || dsn != tt.wantDSN {
			t.Errorf("DriverDSN(%q) = (%q, %q), want (%q, %q)", tt.in, dialect, dsn, tt.wantDialect, tt.wantDSN)
		}
	}
}
