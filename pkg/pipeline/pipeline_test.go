package pipeline

import (
	"testing"

	"github.com/matzehuels/grid3d/pkg/errors"
	"github.com/matzehuels/grid3d/pkg/lattice"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %q", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats(" JSON, svg,,dot ")
	if err != nil {
		t.Fatalf("ParseFormats: %v", err)
	}
	want := []string{"json", "svg", "dot"}
	if len(got) != len(want) {
		t.Fatalf("ParseFormats = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseFormats[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := ParseFormats("json,gif"); err == nil {
		t.Error("gif should fail")
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Params: lattice.Defaults(lattice.KindGrid)}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}
	if opts.Kind != string(DefaultKind) {
		t.Errorf("Kind should be %s, got %s", DefaultKind, opts.Kind)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats should be [json], got %v", opts.Formats)
	}
	if opts.Scale != DefaultPNGScale {
		t.Errorf("Scale should be %v, got %v", DefaultPNGScale, opts.Scale)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	cfg := opts.Config()
	if cfg.Width != 2 || cfg.Height != 2 || cfg.Depth != 2 {
		t.Errorf("Config = %+v", cfg)
	}
}

func TestOptionsValidateForGenerate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"nil params", Options{Kind: "grid"}, errors.ErrCodeNoConfiguration},
		{"unknown kind", Options{Kind: "hex", Params: lattice.Params{}}, errors.ErrCodeInvalidKind},
		{"zero width", Options{Params: lattice.Params{
			"Width": 0, "Height": 2, "Depth": 2, "Spacing": 1.0, "Positioning": true, "Connectivity": "4",
		}}, errors.ErrCodeInvalidDimension},
		{"missing radius", Options{Kind: "neighborhood", Params: lattice.Defaults(lattice.KindGrid)}, errors.ErrCodeMissingParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForGenerate()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Kind: "neighborhood", Params: lattice.Defaults(lattice.KindNeighborhood)}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	first := opts.Config()

	opts.Params = nil // would fail if validated again
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.Config() != first {
		t.Error("Config changed on second call")
	}
}

func TestOptionsBadFormatNotMarkedValidated(t *testing.T) {
	opts := Options{Params: lattice.Defaults(lattice.KindGrid), Formats: []string{"gif"}}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Fatal("gif should fail")
	}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Fatal("gif should still fail on the second call")
	}
}

func TestGraphKeyOpts(t *testing.T) {
	grid := Options{Params: lattice.Params{
		"Width": 3, "Height": 4, "Depth": 5, "Spacing": 1.5, "Positioning": false, "Connectivity": "8",
	}}
	if err := grid.ValidateForGenerate(); err != nil {
		t.Fatal(err)
	}
	k := grid.GraphKeyOpts()
	if k.Kind != "grid" || k.Width != 3 || k.Height != 4 || k.Depth != 5 ||
		k.Spacing != 1.5 || k.Positioning || k.Connectivity != 8 || k.Metric != "" {
		t.Errorf("grid key = %+v", k)
	}

	// Radius 0 graphs do not depend on the neighborhood type.
	a := Options{Kind: "neighborhood", Params: lattice.Defaults(lattice.KindNeighborhood)}
	b := Options{Kind: "neighborhood", Params: lattice.Defaults(lattice.KindNeighborhood)}
	b.Params[lattice.ParamNeighborhoodType] = lattice.NeighborhoodSquare
	if err := a.ValidateForGenerate(); err != nil {
		t.Fatal(err)
	}
	if err := b.ValidateForGenerate(); err != nil {
		t.Fatal(err)
	}
	if a.GraphKeyOpts() != b.GraphKeyOpts() {
		t.Errorf("radius 0 keys differ: %+v vs %+v", a.GraphKeyOpts(), b.GraphKeyOpts())
	}

	b.Params[lattice.ParamRadius] = 1.0
	if err := b.ValidateForGenerate(); err != nil {
		t.Fatal(err)
	}
	if got := b.GraphKeyOpts(); got.Metric != lattice.NeighborhoodSquare || got.Radius != 1 {
		t.Errorf("neighborhood key = %+v", got)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Detailed: true, Scale: 3}
	if k := opts.ArtifactKeyOpts(FormatJSON); k.Detailed || k.Scale != 0 {
		t.Errorf("json key = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatSVG); !k.Detailed || k.Scale != 0 {
		t.Errorf("svg key = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatPNG); !k.Detailed || k.Scale != 3 {
		t.Errorf("png key = %+v", k)
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats should be [json], got %v", opts.Formats)
	}
	if opts.Scale != DefaultPNGScale {
		t.Errorf("Scale should be %v, got %v", DefaultPNGScale, opts.Scale)
	}
}
