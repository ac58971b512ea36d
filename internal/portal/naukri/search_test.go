package naukri

import "testing"

const searchFixture = `
<html><body>
<div class="srp-jobtuple-wrapper">
  <a class="title" href="https://www.naukri.com/job-listings-golang-developer-acme-bangalore-123456789?src=search">Golang Developer</a>
  <a class="comp-name">Acme Software</a>
</div>
<div class="srp-jobtuple-wrapper">
  <a class="title" href="/job-listings-backend-engineer-globex-pune-987654321">Backend  Engineer</a>
  <a class="comp-name">Globex</a>
</div>
<div class="srp-jobtuple-wrapper">
  <span class="title">Card without a link</span>
</div>
</body></html>`

const legacySearchFixture = `
<html><body>
<article class="jobTuple">
  <a class="title" href="https://www.naukri.com/job-listings-java-developer-initech-111222333">Java Developer</a>
  <a class="subTitle">Initech</a>
</article>
</body></html>`

func TestSearchURL(t *testing.T) {
	cases := []struct {
		query    string
		location string
		want     string
	}{
		{"golang developer", "bangalore", baseURL + "/golang-developer-jobs-in-bangalore"},
		{"Java Backend Developer", "", baseURL + "/java-backend-developer-jobs"},
		{"C++ / Go", "New Delhi", baseURL + "/c-go-jobs-in-new-delhi"},
	}
	for _, tc := range cases {
		if got := searchURL(tc.query, tc.location); got != tc.want {
			t.Fatalf("searchURL(%q, %q) = %q, want %q", tc.query, tc.location, got, tc.want)
		}
	}
}

func TestParseSearchResults(t *testing.T) {
	postings := parseSearchResults(mustDoc(t, searchFixture))
	if len(postings) != 2 {
		t.Fatalf("got %d postings, want 2", len(postings))
	}

	first := postings[0]
	if first.ID != "https://naukri.com/job-listings-golang-developer-acme-bangalore-123456789" {
		t.Fatalf("unexpected identifier: %s", first.ID)
	}
	if first.Title != "Golang Developer" || first.Company != "Acme Software" {
		t.Fatalf("unexpected card: %+v", first)
	}

	second := postings[1]
	if second.ID != "https://naukri.com/job-listings-backend-engineer-globex-pune-987654321" {
		t.Fatalf("relative href not resolved: %s", second.ID)
	}
	if second.Title != "Backend Engineer" {
		t.Fatalf("title not normalized: %q", second.Title)
	}
}

func TestParseSearchResultsLegacyLayout(t *testing.T) {
	postings := parseSearchResults(mustDoc(t, legacySearchFixture))
	if len(postings) != 1 {
		t.Fatalf("got %d postings, want 1", len(postings))
	}
	if postings[0].Company != "Initech" || postings[0].Title != "Java Developer" {
		t.Fatalf("unexpected posting: %+v", postings[0])
	}
}

func TestAbsoluteURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://www.naukri.com/some-job", "https://www.naukri.com/some-job"},
		{"//www.naukri.com/some-job", "https://www.naukri.com/some-job"},
		{"/some-job", baseURL + "/some-job"},
		{"some-job", baseURL + "/some-job"},
	}
	for _, tc := range cases {
		if got := absoluteURL(tc.in); got != tc.want {
			t.Fatalf("absoluteURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
