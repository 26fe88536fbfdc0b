package internal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanabi-drive/hanabi/database/internal"
)

func TestCompareColumns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		live    []internal.Column
		wantErr []string
	}{
		{
			name: "exact match",
			live: []internal.Column{
				{Name: "name", Type: "TEXT", Nullable: true},
				{Name: "password", Type: "text", Nullable: true},
			},
		},
		{
			name: "order does not matter",
			live: []internal.Column{
				{Name: "password", Type: "text", Nullable: true},
				{Name: "name", Type: "text", Nullable: true},
			},
		},
		{
			name: "missing and unexpected",
			live: []internal.Column{
				{Name: "name", Type: "text", Nullable: true},
				{Name: "pw", Type: "text", Nullable: true},
				{Name: "email", Type: "text", Nullable: true},
			},
			wantErr: []string{"missing columns: password", "unexpected columns: email, pw"},
		},
		{
			name: "type and nullability",
			live: []internal.Column{
				{Name: "name", Type: "text", Nullable: false},
				{Name: "password", Type: "blob", Nullable: true},
			},
			wantErr: []string{"name: expected nullable=true, got nullable=false", "password: expected text, got blob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := internal.CompareColumns("users", internal.UsersColumns, tt.live)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}

			var schemaErr *internal.SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, "users", schemaErr.Table)
			for _, msg := range tt.wantErr {
				assert.ErrorContains(t, err, msg)
			}
		})
	}
}

func TestCompareColumns_NoTable(t *testing.T) {
	t.Parallel()

	err := internal.CompareColumns("users", internal.UsersColumns, nil)
	assert.ErrorIs(t, err, internal.ErrNoTable)
	assert.ErrorContains(t, err, "does not exist")
}
