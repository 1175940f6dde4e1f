package template

import "testing"

func TestSubstituteListWholeTokenOnly(t *testing.T) {
	env := map[string]string{"input_filepath": "/tmp/in.mkv", "output_path": "/tmp/out.265"}
	got, err := SubstituteList([]string{"-i", "{{ input_filepath }}", "--out={{output_path}}"}, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[1] != "/tmp/in.mkv" {
		t.Errorf("whole-token placeholder not substituted: %v", got)
	}
	if got[2] != "--out={{output_path}}" {
		t.Errorf("mixed-text token should be left untouched, got %q", got[2])
	}
}

func TestSubstituteListMissingPlaceholder(t *testing.T) {
	_, err := SubstituteList([]string{"{{missing_name}}"}, map[string]string{})
	if err == nil {
		t.Fatal("expected MissingTemplateError")
	}
	if _, ok := err.(*MissingTemplateError); !ok {
		t.Fatalf("expected *MissingTemplateError, got %T", err)
	}
}

func TestSubstituteText(t *testing.T) {
	tmpl := "source = ffms2.Source(\"{{input_filepath}}\", fpsnum={{fps_num}}, fpsden={{fps_den}})"
	env := map[string]string{"input_filepath": "movie.mkv", "fps_num": "24000", "fps_den": "1001"}
	got, err := SubstituteText(tmpl, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `source = ffms2.Source("movie.mkv", fpsnum=24000, fpsden=1001)`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestValidateRequiredEncoderArgv(t *testing.T) {
	if err := ValidateRequired([]string{"-i", "{{input_filepath}}"}, "encoder_argv"); err == nil {
		t.Fatal("expected error for missing output_path")
	}
	if err := ValidateRequired([]string{"-i", "{{input_filepath}}", "{{output_path}}"}, "encoder_argv"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
