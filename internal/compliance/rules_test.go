package compliance

import "testing"

func TestDomainAllowed(t *testing.T) {
	allowed := []string{"*.company.com", "trusted-partner.com"}

	tests := []struct {
		host string
		want bool
	}{
		{"wiki.company.com", true},
		{"deep.sub.company.com", true},
		{"company.com", true},
		{"trusted-partner.com", true},
		{"TRUSTED-PARTNER.COM", true},
		{"evilcompany.com", false},
		{"company.com.evil.net", false},
		{"sub.trusted-partner.com", false},
		{"example.org", false},
	}
	for _, tt := range tests {
		if got := domainAllowed(tt.host, allowed); got != tt.want {
			t.Errorf("domainAllowed(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestExtractHosts(t *testing.T) {
	hosts := extractHosts("fetch https://a.company.com/x and http://B.example.org:8080/y?z=1")
	if len(hosts) != 2 {
		t.Fatalf("expected 2 hosts, got %v", hosts)
	}
	if hosts[0] != "a.company.com" || hosts[1] != "b.example.org" {
		t.Errorf("hosts = %v", hosts)
	}
}

func TestFindRestrictedKeyword(t *testing.T) {
	kws := []string{"confidential", "secret"}
	if kw := findRestrictedKeyword("this is Top-Secret material", kws); kw != "secret" {
		t.Errorf("got %q", kw)
	}
	if kw := findRestrictedKeyword("routine report", kws); kw != "" {
		t.Errorf("got %q, want empty", kw)
	}
}
