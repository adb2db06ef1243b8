package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"recibo/internal/model"
	"recibo/internal/oracle"
	"recibo/internal/vocab"
)

var (
	// a comma right after a price ends an entry; "1,299.99" does not
	reEntrySep = regexp.MustCompile(`(\d\.\d{2}(?:\s*[A-Za-z]\b)?)\s*,\s*`)
	rePriced   = regexp.MustCompile(`^(.*?)[\s:\-]*\$?(\d{1,3}(?:,\d{3})+\.\d{2}|\d+\.\d{2})\s*[A-Za-z]?$`)
	reQuantity = regexp.MustCompile(`^(\d{1,2})\s*[xX*]\s+(.+)$`)
)

// nonItemWords make up totals, tax and payment lines. A line is skipped only
// when every word is one of them, so "CASH COW CHEESE" is still a purchase.
var nonItemWords = vocab.NewWordSet(
	"total", "subtotal", "sub", "grand", "net", "tax", "vat", "sales", "change",
	"cash", "back", "visa", "mastercard", "amex", "debit", "credit", "card",
	"balance", "tender", "tend", "tendered", "amount", "amt", "payment", "paid",
	"due", "you", "your", "saved", "items", "item", "discount", "savings",
	"coupon", "rounding",
)

// deductionWords open lines that take money off a purchase.
var deductionWords = vocab.NewWordSet("coupon", "discount", "savings", "promo", "markdown")

// Heuristic is a deterministic, offline arbiter. It reads priced lines off
// the receipt, matches them to cart items by canonical name and reports
// double charges and unmatched lines. Lines that match more than one cart
// item are not flagged.
type Heuristic struct {
	lexicon *vocab.Lexicon
}

// NewHeuristic creates a heuristic arbiter. A nil lexicon uses the built-in
// qualifier list.
func NewHeuristic(lexicon *vocab.Lexicon) *Heuristic {
	if lexicon == nil {
		lexicon = vocab.DefaultLexicon()
	}
	return &Heuristic{lexicon: lexicon}
}

// Arbitrate implements oracle.Arbiter.
func (h *Heuristic) Arbitrate(ctx context.Context, req oracle.ArbitrationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := json.Marshal(h.Reconcile(req.Items, req.ReceiptText))
	if err != nil {
		return "", fmt.Errorf("encode verdict: %w", err)
	}
	return string(b), nil
}

// receiptLine is one purchase read off the receipt.
type receiptLine struct {
	name     string
	quantity int
	tokens   []string
}

// cartEntry groups cart items with the same canonical name.
type cartEntry struct {
	display string
	tokens  []string
	inCart  int
	onSlip  int
}

type unmatched struct {
	name  string
	count int
}

// Reconcile compares items with receiptText.
func (h *Heuristic) Reconcile(items []model.Item, receiptText string) model.Verdict {
	var entries []*cartEntry
	byKey := make(map[string]*cartEntry)
	for _, item := range items {
		if item.IsProcessing {
			continue
		}
		tokens := h.lexicon.Tokens(item.Name)
		key := strings.Join(tokens, " ")
		if key == "" {
			continue
		}
		entry, ok := byKey[key]
		if !ok {
			entry = &cartEntry{display: strings.TrimSpace(item.Name), tokens: tokens}
			byKey[key] = entry
			entries = append(entries, entry)
		}
		entry.inCart++
	}

	var extras []*unmatched
	extraByKey := make(map[string]*unmatched)

	for _, line := range h.parseReceipt(receiptText) {
		key := strings.Join(line.tokens, " ")
		if entry, ok := byKey[key]; ok {
			entry.onSlip += line.quantity
			continue
		}

		candidates := similarEntries(entries, line.tokens)
		switch len(candidates) {
		case 1:
			candidates[0].onSlip += line.quantity
		case 0:
			extra, ok := extraByKey[key]
			if !ok {
				extra = &unmatched{name: line.name}
				extraByKey[key] = extra
				extras = append(extras, extra)
			}
			extra.count += line.quantity
		default:
			// ambiguous: not flagged
		}
	}

	discrepancies := []model.Discrepancy{}
	for _, entry := range entries {
		if entry.onSlip > entry.inCart {
			discrepancies = append(discrepancies, model.Discrepancy{
				ItemName: entry.display,
				Issue:    fmt.Sprintf("found %d× on receipt, %d× in cart", entry.onSlip, entry.inCart),
			})
		}
	}
	for _, extra := range extras {
		issue := "on receipt but not in cart"
		if extra.count > 1 {
			issue = fmt.Sprintf("found %d× on receipt but not in cart", extra.count)
		}
		discrepancies = append(discrepancies, model.Discrepancy{ItemName: extra.name, Issue: issue})
	}

	return model.Verdict{Verified: len(discrepancies) == 0, Discrepancies: discrepancies}
}

// parseReceipt extracts priced purchase lines, skipping totals, tax and
// payment lines and anything without a price.
func (h *Heuristic) parseReceipt(text string) []receiptLine {
	var lines []receiptLine
	for _, raw := range strings.Split(text, "\n") {
		for _, entry := range strings.Split(reEntrySep.ReplaceAllString(raw, "${1}\n"), "\n") {
			if line, ok := h.parseLine(entry); ok {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

func (h *Heuristic) parseLine(s string) (receiptLine, bool) {
	s = strings.TrimSpace(s)
	m := rePriced.FindStringSubmatch(s)
	if m == nil {
		return receiptLine{}, false
	}

	name := m[1]
	quantity := 1
	if q := reQuantity.FindStringSubmatch(strings.TrimSpace(name)); q != nil {
		if n, err := strconv.Atoi(q[1]); err == nil && n > 0 {
			quantity = n
			name = q[2]
		}
	}

	name = strings.TrimFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if name == "" || isNonItem(name) {
		return receiptLine{}, false
	}

	tokens := h.lexicon.Tokens(name)
	if len(tokens) == 0 {
		return receiptLine{}, false
	}
	return receiptLine{name: name, quantity: quantity, tokens: tokens}, true
}

func isNonItem(name string) bool {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return false
	}
	if deductionWords.Contains(words[0]) {
		return true
	}
	for _, w := range words {
		if !nonItemWords.Contains(w) {
			return false
		}
	}
	return true
}

// similarEntries returns the cart entries whose tokens cover, or are covered
// by, tokens.
func similarEntries(entries []*cartEntry, tokens []string) []*cartEntry {
	var out []*cartEntry
	for _, entry := range entries {
		if covers(entry.tokens, tokens) || covers(tokens, entry.tokens) {
			out = append(out, entry)
		}
	}
	return out
}

// covers reports whether every token of small matches a token of large.
func covers(large, small []string) bool {
	if len(small) == 0 || len(small) > len(large) {
		return false
	}
	for _, s := range small {
		found := false
		for _, l := range large {
			if tokenMatch(s, l) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// tokenMatch treats a token as an abbreviation of another when it is a
// prefix of at least three letters ("ban" for "banana").
func tokenMatch(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) >= 3 && strings.HasPrefix(b, a) {
		return true
	}
	return len(b) >= 3 && strings.HasPrefix(a, b)
}
