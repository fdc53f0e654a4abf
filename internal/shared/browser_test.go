package shared

import (
	"errors"
	"testing"
)

func TestBrowser(t *testing.T) {
	t.Run("browserCommand", func(t *testing.T) {
		orig := getRuntime
		defer func() { getRuntime = orig }()

		tc := []struct {
			goos    string
			want    string
			wantErr bool
		}{
			{goos: "darwin", want: "open"},
			{goos: "linux", want: "xdg-open"},
			{goos: "windows", want: "rundll32"},
			{goos: "plan9", wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.goos, func(t *testing.T) {
				getRuntime = func() string { return tt.goos }
				cmd, err := browserCommand("https://archive.org/details/x/mode/2up")
				if tt.wantErr {
					if err == nil {
						t.Fatal("expected error for unsupported platform")
					}
					return
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cmd.Args[0] != tt.want {
					t.Errorf("expected launcher %s, got %s", tt.want, cmd.Args[0])
				}
			})
		}
	})

	t.Run("OpenBrowser rejects non-web URLs", func(t *testing.T) {
		for _, target := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "/relative"} {
			if err := OpenBrowser(target); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("OpenBrowser(%q) = %v, want ErrInvalidArgument", target, err)
			}
		}
	})
}
