// Package trust holds the trust policy: given the facts already known about
// a user, decide whether a claimed domain and IP are trusted.
package trust

import "github.com/dmitrijs2005/trustkeeper/internal/netx"

// Facts are the trust records of one user, loaded by the caller.
type Facts struct {
	UserID         string
	Domains        []string
	IPs            []string
	VerifiedEmails []string
}

// Verdict is the trust outcome of a single login attempt.
type Verdict struct {
	DomainTrusted bool
	IPTrusted     bool
}

// Verified reports whether the user completed at least one email challenge.
func (f Facts) Verified() bool {
	return len(f.VerifiedEmails) > 0
}

// Evaluate is pure: it reads only f and performs no I/O.
func Evaluate(f Facts, claimedDomain, claimedIP string) Verdict {
	return Verdict{
		DomainTrusted: hasDomain(f, claimedDomain),
		IPTrusted:     hasIP(f, claimedIP),
	}
}

func hasDomain(f Facts, claimed string) bool {
	claimed = netx.NormalizeDomain(claimed)
	if claimed == "" {
		return false
	}
	for _, d := range f.Domains {
		if netx.NormalizeDomain(d) == claimed {
			return true
		}
	}
	return false
}

func hasIP(f Facts, claimed string) bool {
	claimed, ok := netx.NormalizeIP(claimed)
	if !ok {
		return false
	}
	for _, ip := range f.IPs {
		if known, _ := netx.NormalizeIP(ip); known == claimed {
			return true
		}
	}
	return false
}
