package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		owned []string
		want  []string
	}{
		{
			name:  "separate value",
			args:  []string{"-d", "postgres://db", "-x", "1"},
			owned: []string{"-d"},
			want:  []string{"-d", "postgres://db"},
		},
		{
			name:  "equals form",
			args:  []string{"-a=:8080", "-x", "1"},
			owned: []string{"-a"},
			want:  []string{"-a=:8080"},
		},
		{
			name:  "unknown flags dropped",
			args:  []string{"-x", "1", "--y=2", "positional"},
			owned: []string{"-a"},
			want:  []string{},
		},
		{
			name:  "owned flag at end without value",
			args:  []string{"-s"},
			owned: []string{"-s"},
			want:  []string{"-s"},
		},
		{
			name:  "next dash token is not a value",
			args:  []string{"-c", "-config=alt.json"},
			owned: []string{"-c", "-config"},
			want:  []string{"-c", "-config=alt.json"},
		},
		{
			name:  "repeated flag keeps order",
			args:  []string{"-c", "one.json", "-c", "two.json"},
			owned: []string{"-c"},
			want:  []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:  "empty",
			args:  []string{},
			owned: []string{"-c"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.owned))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "short", args: []string{"bin", "-c", "/etc/conf.json"}, want: "/etc/conf.json"},
		{name: "long", args: []string{"bin", "-config", "/etc/conf.json"}, want: "/etc/conf.json"},
		{name: "absent", args: []string{"bin", "-a", ":8080"}, want: ""},
		{name: "last wins", args: []string{"bin", "-c", "1.json", "-config", "2.json"}, want: "2.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			assert.Equal(t, tt.want, ConfigFileFlag())
		})
	}
}
