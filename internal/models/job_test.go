package models

import "testing"

func TestCanonicalID(t *testing.T) {
	cases := []struct {
		raw  string
		want JobIdentifier
	}{
		{"https://www.naukri.com/job-listings-backend-dev-123456789", "https://naukri.com/job-listings-backend-dev-123456789"},
		{"https://naukri.com/job-listings-backend-dev-123456789/", "https://naukri.com/job-listings-backend-dev-123456789"},
		{"https://www.naukri.com/job-listings-backend-dev-123456789?src=search&sid=42", "https://naukri.com/job-listings-backend-dev-123456789"},
		{"HTTPS://WWW.Naukri.com/some-job#apply", "https://naukri.com/some-job"},
		{"  https://naukri.com/some-job  ", "https://naukri.com/some-job"},
	}

	for _, tc := range cases {
		got := CanonicalID(tc.raw)
		if got != tc.want {
			t.Fatalf("CanonicalID(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestCanonicalIDStableAcrossSearchVariants(t *testing.T) {
	variants := []string{
		"https://www.naukri.com/job-listings-java-dev-987654321?src=jobsearchDesk",
		"https://naukri.com/job-listings-java-dev-987654321/",
		"https://www.naukri.com/job-listings-java-dev-987654321#details",
	}

	first := CanonicalID(variants[0])
	for _, variant := range variants[1:] {
		if got := CanonicalID(variant); got != first {
			t.Fatalf("CanonicalID(%q) = %q, want %q", variant, got, first)
		}
	}
}

func TestCanonicalIDEmpty(t *testing.T) {
	if got := CanonicalID("   "); got != "" {
		t.Fatalf("expected empty identifier, got %q", got)
	}
}

func TestStatusTerminal(t *testing.T) {
	cases := []struct {
		status   Status
		terminal bool
	}{
		{StatusApplied, true},
		{StatusSkipped, true},
		{StatusShortlisted, false},
		{StatusFailed, false},
	}

	for _, tc := range cases {
		if got := tc.status.Terminal(); got != tc.terminal {
			t.Fatalf("%s.Terminal() = %v, want %v", tc.status, got, tc.terminal)
		}
	}
}
