// Package matcher attributes incoming bank transactions to tenants.
//
// Each transaction gets a tenant (or none), a confidence and a status.
// Two signals are weighed per tenant:
//   - amount: the transaction equals the tenant's rent within tolerance
//   - identity: the tenant's name appears in the bank description
//
// Both signals together give Matched/High, one strong signal gives
// Matched/Medium (identity) or Review/Medium (amount only), and weak
// identity gives Review/Low. Transactions with no candidate are Failed/Low
// and, when the bank flagged the source as unresolved, get one fallback
// attempt at a looser token-overlap match.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	annotated := m.Run(transactions, tenants, payees)
//
// Run is a pure function of its inputs: running it again on its own output
// changes nothing.
package matcher

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// MintedPayeePrefix starts every payee id minted by the matcher.
const MintedPayeePrefix = "pd-auto-"

// Matcher classifies transactions against a tenant directory.
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config: config,
	}
}

// Config returns the matcher's configuration.
func (m *Matcher) Config() Config {
	return m.config
}

type candidate struct {
	tenant      Tenant
	amountMatch bool
	score       float64
}

// Run classifies every transaction and returns them in input order.
//
// New transactions are classified from scratch. Review transactions are
// re-classified and only ever move up. Failed transactions only take the
// fallback path. Matched transactions are returned untouched.
func (m *Matcher) Run(txs []Transaction, tenants []Tenant, payees []Payee) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[i] = m.Classify(tx, tenants, payees)
	}
	return out
}

// Classify applies one matching step to a single transaction.
func (m *Matcher) Classify(tx Transaction, tenants []Tenant, payees []Payee) Transaction {
	if tx.ID == "" {
		tx.ID = TransactionID(tx.Date, tx.Amount, tx.Description)
	}

	switch tx.Status {
	case StatusMatched:
		return tx

	case StatusReview:
		next := m.classifyNew(tx, tenants, payees)
		if next.Status.Rank() > tx.Status.Rank() {
			return next
		}
		return tx

	case StatusFailed:
		return m.fallback(tx, tenants, payees)

	default:
		// Debits and zero-amount entries are never rent.
		if !tx.Amount.IsPositive() {
			return unmatched(tx, StatusFailed, ReasonNotIncoming)
		}
		next := m.classifyNew(tx, tenants, payees)
		if next.Status == StatusFailed {
			return m.fallback(next, tenants, payees)
		}
		return next
	}
}

func (m *Matcher) classifyNew(tx Transaction, tenants []Tenant, payees []Payee) Transaction {
	candidates := m.rank(tx, tenants, payees)
	if len(candidates) == 0 {
		return unmatched(tx, StatusFailed, ReasonNoCandidate)
	}

	best := candidates[0]
	strong := best.score >= m.config.StrongSimilarity
	weak := best.score >= m.config.MinSimilarity

	switch {
	case best.amountMatch && strong:
		return m.bind(tx, best.tenant, StatusMatched, ConfidenceHigh, ReasonAmountAndName, payees)
	case strong:
		return m.bind(tx, best.tenant, StatusMatched, ConfidenceMedium, ReasonName, payees)
	case best.amountMatch:
		return propose(tx, best.tenant, ConfidenceMedium, ReasonAmount)
	case weak:
		return propose(tx, best.tenant, ConfidenceLow, ReasonWeakName)
	}
	return unmatched(tx, StatusFailed, ReasonNoCandidate)
}

// rank scores every tenant and orders the survivors by amount match,
// then name score, then tenant name.
func (m *Matcher) rank(tx Transaction, tenants []Tenant, payees []Payee) []candidate {
	desc := tokenize(tx.Description)
	var out []candidate

	for _, t := range tenants {
		c := candidate{
			tenant:      t,
			amountMatch: m.amountMatches(tx, t),
			score:       nameScore(t.Name, desc),
		}
		for _, p := range payees {
			if p.TenantID == t.ID && p.Name != "" {
				c.score = max(c.score, nameScore(p.Name, desc))
			}
		}
		if c.amountMatch || c.score >= m.config.MinSimilarity {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.amountMatch != b.amountMatch {
			return a.amountMatch
		}
		if a.score != b.score {
			return a.score > b.score
		}
		an, bn := strings.ToLower(a.tenant.Name), strings.ToLower(b.tenant.Name)
		if an != bn {
			return an < bn
		}
		return a.tenant.ID < b.tenant.ID
	})
	return out
}

func (m *Matcher) amountMatches(tx Transaction, t Tenant) bool {
	if !t.Rent.IsPositive() {
		return false
	}
	return tx.Amount.Sub(t.Rent).Abs().LessThanOrEqual(m.config.AmountTolerance)
}

func (m *Matcher) hasUnresolvedMarker(description string) bool {
	tokens := tokenize(description)
	for _, marker := range m.config.UnresolvedMarkers {
		if containsSeq(tokens, tokenize(marker)) {
			return true
		}
	}
	return false
}

// fallback gives a Failed transaction one attempt at a looser match. It only
// runs when the bank marked the source as unresolved, and it runs once.
func (m *Matcher) fallback(tx Transaction, tenants []Tenant, payees []Payee) Transaction {
	if tx.FallbackExhausted || !tx.Amount.IsPositive() || !m.hasUnresolvedMarker(tx.Description) {
		return tx
	}

	desc := tokenize(tx.Description)
	var (
		best      *Tenant
		bestScore float64
	)
	for i := range tenants {
		t := tenants[i]
		score := 0.0
		for _, group := range identityGroups(t) {
			score = max(score, overlap(group, desc))
		}
		if score < m.config.FallbackMinOverlap {
			continue
		}
		if best == nil || score > bestScore ||
			(score == bestScore && strings.ToLower(t.Name) < strings.ToLower(best.Name)) {
			best, bestScore = &tenants[i], score
		}
	}
	if best != nil {
		return m.bind(tx, *best, StatusMatched, ConfidenceMedium, ReasonTokenOverlap, payees)
	}

	var byAmount []Tenant
	for _, t := range tenants {
		if m.amountMatches(tx, t) {
			byAmount = append(byAmount, t)
		}
	}
	if len(byAmount) == 1 {
		return m.bind(tx, byAmount[0], StatusMatched, ConfidenceMedium, ReasonUniqueAmount, payees)
	}

	tx = unmatched(tx, StatusFailed, ReasonFallbackFailed)
	tx.FallbackExhausted = true
	return tx
}

// Assign records an operator decision: the transaction belongs to tenant.
func (m *Matcher) Assign(tx Transaction, tenant Tenant, payees []Payee) Transaction {
	if tx.ID == "" {
		tx.ID = TransactionID(tx.Date, tx.Amount, tx.Description)
	}
	return m.bind(tx, tenant, StatusMatched, ConfidenceHigh, ReasonOperator, payees)
}

func (m *Matcher) bind(tx Transaction, t Tenant, status Status, conf Confidence, reason string, payees []Payee) Transaction {
	tx.TenantID = t.ID
	tx.TenantName = t.Name
	tx.Status = status
	tx.Confidence = conf
	tx.Reason = reason
	tx.PayeeID, tx.PayeeMinted = BindPayee(t, payees)
	return tx
}

func propose(tx Transaction, t Tenant, conf Confidence, reason string) Transaction {
	tx.TenantID = t.ID
	tx.TenantName = t.Name
	tx.Status = StatusReview
	tx.Confidence = conf
	tx.Reason = reason
	tx.PayeeID = ""
	tx.PayeeMinted = false
	return tx
}

func unmatched(tx Transaction, status Status, reason string) Transaction {
	tx.TenantID = ""
	tx.TenantName = Unmatched
	tx.Status = status
	tx.Confidence = ConfidenceLow
	tx.Reason = reason
	tx.PayeeID = ""
	tx.PayeeMinted = false
	return tx
}

// BindPayee picks the payee a Matched transaction pays out to: the tenant's
// active account, then any account of the tenant, then a provider payee with
// the tenant's name. If none exists a deterministic id is minted and
// reported with minted=true so the caller can register it.
func BindPayee(t Tenant, payees []Payee) (id string, minted bool) {
	for _, p := range payees {
		if p.TenantID == t.ID && p.Active && p.ID != "" {
			return p.ID, false
		}
	}
	for _, p := range payees {
		if p.TenantID == t.ID && p.ID != "" {
			return p.ID, false
		}
	}
	name := strings.Join(tokenize(t.Name), " ")
	for _, p := range payees {
		if p.TenantID == "" && p.ID != "" && name != "" && strings.Join(tokenize(p.Name), " ") == name {
			return p.ID, false
		}
	}
	return MintPayeeID(t.ID), true
}

// MintPayeeID derives the placeholder payee id for a tenant.
func MintPayeeID(tenantID string) string {
	hash := sha256.Sum256([]byte(tenantID))
	return MintedPayeePrefix + hex.EncodeToString(hash[:8])
}
