package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/ledger", "pgx5://u:p@localhost:5432/ledger"},
		{"postgresql://localhost/ledger?sslmode=disable", "pgx5://localhost/ledger?sslmode=disable"},
		{"pgx5://localhost/ledger", "pgx5://localhost/ledger"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, migrateURL(tt.in))
	}
}
