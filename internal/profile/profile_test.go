package profile

import "testing"

func TestGet(t *testing.T) {
	for _, name := range []string{"default", "tiktok", "instagram-reel", "x-twitter"} {
		p, err := Get(name)
		if err != nil {
			t.Errorf("Get(%q) error = %v", name, err)
			continue
		}
		if p.GetName() != name {
			t.Errorf("Get(%q).GetName() = %q", name, p.GetName())
		}
		if p.GetCRF() <= 0 || p.GetPreset() == "" || p.GetAudioBitrate() == "" {
			t.Errorf("profile %q has incomplete encoder settings", name)
		}
	}

	if _, err := Get("myspace"); err == nil {
		t.Error("Get(unknown) expected error")
	}
}

func TestGetSupportedProfiles_Sorted(t *testing.T) {
	names := GetSupportedProfiles()
	want := []string{"default", "instagram-reel", "tiktok", "x-twitter"}
	if len(names) != len(want) {
		t.Fatalf("GetSupportedProfiles() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestDefault_KeepsSourceSize(t *testing.T) {
	p, _ := Get("default")
	w, h := p.GetMaxDimensions()
	if w != 0 || h != 0 {
		t.Errorf("default max dimensions = %dx%d, want 0x0", w, h)
	}
	if p.GetMaxDuration() != 0 {
		t.Errorf("default max duration = %d, want 0", p.GetMaxDuration())
	}
}
