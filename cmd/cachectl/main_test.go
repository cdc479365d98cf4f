package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantAll bool
		wantErr string
	}{
		{name: "clear products", args: []string{"clear-products"}},
		{name: "clear all", args: []string{"clear-products", "--all"}, wantAll: true},
		{name: "single dash flag", args: []string{"clear-products", "-all"}, wantAll: true},
		{name: "no command", args: nil, wantErr: `unknown command ""`},
		{name: "unknown command", args: []string{"clear-orders"}, wantErr: `unknown command "clear-orders"`},
		{name: "unknown flag", args: []string{"clear-products", "--force"}, wantErr: "flag provided but not defined"},
		{name: "extra argument", args: []string{"clear-products", "now"}, wantErr: "unexpected arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all, err := parseArgs(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAll, all)
		})
	}
}

func TestRun_RejectsUnknownCommandBeforeLoadingConfig(t *testing.T) {
	err := run([]string{"flush"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "flush"`)
}
