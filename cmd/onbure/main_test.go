package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteDirectGroupArgs(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"bare id", []string{"onbure", "grp-abc"}, []string{"onbure", "groups", "get", "grp-abc"}},
		{"after value flag", []string{"onbure", "--dir", "/tmp/x", "grp-abc"}, []string{"onbure", "--dir", "/tmp/x", "groups", "get", "grp-abc"}},
		{"after equals flag", []string{"onbure", "--format=yaml", "grp-abc"}, []string{"onbure", "--format=yaml", "groups", "get", "grp-abc"}},
		{"after dashdash", []string{"onbure", "--", "grp-abc"}, []string{"onbure", "--", "groups", "get", "grp-abc"}},
		{"subcommand untouched", []string{"onbure", "groups", "list"}, []string{"onbure", "groups", "list"}},
		{"prefix only", []string{"onbure", "grp-"}, []string{"onbure", "grp-"}},
		{"no args", []string{"onbure"}, []string{"onbure"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rewriteDirectGroupArgs(tc.in))
		})
	}
}
