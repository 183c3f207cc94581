package models

import (
	"testing"
)

func TestParseAspectRatio(t *testing.T) {
	tc := []struct {
		in      string
		want    AspectRatio
		wantErr bool
	}{
		{in: "16:9", want: AspectLandscape},
		{in: "1:1", want: AspectSquare},
		{in: " 9:16 ", want: AspectPortrait},
		{in: "4:3", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAspectRatio(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAspectRatio(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAspectRatio(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAspectRatioNext(t *testing.T) {
	if got := AspectLandscape.Next(); got != AspectSquare {
		t.Errorf("expected 1:1 after 16:9, got %s", got)
	}
	if got := AspectPortrait.Next(); got != AspectLandscape {
		t.Errorf("expected wrap to 16:9, got %s", got)
	}
	if got := AspectRatio("bogus").Next(); got != DefaultAspectRatio {
		t.Errorf("expected default for unknown ratio, got %s", got)
	}
}

func TestSelection(t *testing.T) {
	paris := VibeOption{ID: "paris", Label: "Paris"}
	rooftop := VibeOption{ID: "rooftop", Label: "Rooftop"}
	smooth := VibeOption{ID: "smooth-jazz", Label: "Smooth Jazz"}

	t.Run("incomplete until all slots filled", func(t *testing.T) {
		sel := NewSelection()
		steps := []struct {
			kind OptionKind
			opt  VibeOption
		}{
			{KindDestination, paris},
			{KindView, rooftop},
			{KindMood, smooth},
		}

		for i, s := range steps {
			if _, ok := sel.Complete(); ok {
				t.Fatalf("selection complete after %d slots", i)
			}
			sel = sel.With(s.kind, s.opt)
			if got := sel.Slot(s.kind); got == nil || got.ID != s.opt.ID {
				t.Fatalf("slot %s not stored", s.kind)
			}
		}

		complete, ok := sel.Complete()
		if !ok {
			t.Fatal("expected complete selection")
		}
		if complete.AspectRatio != DefaultAspectRatio {
			t.Errorf("expected default aspect ratio, got %s", complete.AspectRatio)
		}
		if complete.Summary() != "Rooftop in Paris · Smooth Jazz" {
			t.Errorf("unexpected summary %q", complete.Summary())
		}
	})

	t.Run("With does not alias the caller", func(t *testing.T) {
		base := NewSelection()
		next := base.With(KindDestination, paris)
		if base.Destination != nil {
			t.Error("original selection should be unchanged")
		}
		if next.Destination == nil {
			t.Error("copy should hold the destination")
		}
	})
}

func TestGeneratedResultAccessors(t *testing.T) {
	r := GeneratedResult{Titles: []string{"Only One"}, Colors: []string{"#112233", " "}}

	if r.Title(0) != "Only One" || r.Title(2) != "" || r.Title(-1) != "" {
		t.Errorf("unexpected titles: %q %q", r.Title(0), r.Title(2))
	}

	tc := []struct {
		name string
		i    int
		want string
	}{
		{name: "present", i: 0, want: "#112233"},
		{name: "blank", i: 1, want: "#ffffff"},
		{name: "missing", i: 2, want: "#ffffff"},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Color(tt.i, "#ffffff"); got != tt.want {
				t.Errorf("Color(%d) = %q, want %q", tt.i, got, tt.want)
			}
		})
	}
}

func TestVibeValidate(t *testing.T) {
	sel := CompleteSelection{
		Destination: VibeOption{ID: "paris", Label: "Paris"},
		View:        VibeOption{ID: "rooftop", Label: "Rooftop"},
		Mood:        VibeOption{ID: "smooth-jazz", Label: "Smooth Jazz"},
		AspectRatio: AspectSquare,
	}
	result := GeneratedResult{Titles: []string{"A", "B"}, ThumbnailURL: "data:image/png;base64,AA=="}

	v := NewVibe(sel, result)
	if err := v.Validate(); err == nil {
		t.Error("expected error without id")
	}

	v.SetID("vibe-1")
	if err := v.Validate(); err != nil {
		t.Errorf("expected valid vibe, got %v", err)
	}
	if v.SelectedTitle() != "A" {
		t.Errorf("expected first title selected by default, got %q", v.SelectedTitle())
	}

	noThumb := NewVibe(sel, GeneratedResult{})
	noThumb.SetID("vibe-2")
	if err := noThumb.Validate(); err == nil {
		t.Error("expected error without thumbnail")
	}

	badRatio := sel
	badRatio.AspectRatio = "4:3"
	bad := NewVibe(badRatio, result)
	bad.SetID("vibe-3")
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unsupported aspect ratio")
	}
}

func TestVibeOptionIsCustom(t *testing.T) {
	if (VibeOption{ID: "custom-123"}).IsCustom() != true {
		t.Error("custom- prefix should be custom")
	}
	if (VibeOption{ID: "paris"}).IsCustom() {
		t.Error("catalog id should not be custom")
	}
}
