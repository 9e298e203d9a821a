package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	facts := Facts{
		UserID:  "u-1",
		Domains: []string{"d1", "https://app.example.com"},
		IPs:     []string{"1.1.1.1", "2001:db8::1"},
	}

	tests := []struct {
		name   string
		domain string
		ip     string
		want   Verdict
	}{
		{name: "both known", domain: "d1", ip: "1.1.1.1", want: Verdict{DomainTrusted: true, IPTrusted: true}},
		{name: "unknown domain", domain: "d2", ip: "1.1.1.1", want: Verdict{DomainTrusted: false, IPTrusted: true}},
		{name: "unknown ip", domain: "d1", ip: "2.2.2.2", want: Verdict{DomainTrusted: true, IPTrusted: false}},
		{name: "nothing known", domain: "d9", ip: "9.9.9.9", want: Verdict{}},
		{name: "domain case and slash", domain: "HTTPS://App.Example.com/", ip: "1.1.1.1", want: Verdict{DomainTrusted: true, IPTrusted: true}},
		{name: "ip with port", domain: "d1", ip: "1.1.1.1:5555", want: Verdict{DomainTrusted: true, IPTrusted: true}},
		{name: "ipv6 bracketed", domain: "d1", ip: "[2001:db8::1]:443", want: Verdict{DomainTrusted: true, IPTrusted: true}},
		{name: "empty claims", domain: "", ip: "", want: Verdict{}},
		{name: "garbage ip", domain: "d1", ip: "localhost", want: Verdict{DomainTrusted: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(facts, tt.domain, tt.ip))
		})
	}
}

func TestEvaluate_NoFacts(t *testing.T) {
	assert.Equal(t, Verdict{}, Evaluate(Facts{}, "d1", "1.1.1.1"))
}

func TestFacts_Verified(t *testing.T) {
	assert.False(t, Facts{}.Verified())
	assert.True(t, Facts{VerifiedEmails: []string{"a@x.com"}}.Verified())
}
