package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-d", "vault.db", "-x", "1"},
			allowedFlags: []string{"-d", "--database"},
			want:         []string{"-d", "vault.db"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--database=alt.db", "-x", "1"},
			allowedFlags: []string{"-d", "--database"},
			want:         []string{"--database=alt.db"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-d"},
			want:         []string{},
		},
		{
			name:         "flag followed by another flag has no value",
			args:         []string{"-d", "-notvalue"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d"},
		},
		{
			name:         "flag without value at end",
			args:         []string{"-d"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowedFlags)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripArgs(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		flags []string
		want  []string
	}{
		{
			name:  "flag with value removed",
			args:  []string{"-d", "vault.db", "list"},
			flags: []string{"-d"},
			want:  []string{"list"},
		},
		{
			name:  "equals form removed",
			args:  []string{"--database=alt.db", "export", "out.bin"},
			flags: []string{"--database"},
			want:  []string{"export", "out.bin"},
		},
		{
			name:  "unrelated flags survive",
			args:  []string{"import", "-overwrite", "in.bin"},
			flags: []string{"-d"},
			want:  []string{"import", "-overwrite", "in.bin"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripArgs(tt.args, tt.flags))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"vault", "-c", "conf.json", "-d", "vault.db"}
	assert.Equal(t, "conf.json", JsonConfigFlags())

	os.Args = []string{"vault", "--config=alt.json"}
	assert.Equal(t, "alt.json", JsonConfigFlags())

	os.Args = []string{"vault", "-d", "vault.db"}
	assert.Equal(t, "", JsonConfigFlags())
}
