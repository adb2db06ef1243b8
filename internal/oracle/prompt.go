package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"recibo/internal/model"

	"github.com/rs/zerolog"
)

// Instructions shared by every backend.
const (
	TranscribePrompt   = "Transcribe this receipt into structured text. List every item and price."
	ReadReceiptPrompt  = "Read this receipt. Output all text found."
	ArbiterInstruction = "You are a strict auditor API. Output JSON only."
)

// maxReceiptChars bounds the receipt text forwarded to an arbiter.
const maxReceiptChars = 6000

func storeOrDefault(storeContext string) string {
	if s := strings.TrimSpace(storeContext); s != "" {
		return s
	}
	return "a store"
}

// IdentifyPrompt asks for a single product guess in a fixed JSON shape.
func IdentifyPrompt(req IdentifyRequest) string {
	var b strings.Builder
	b.WriteString("Identify this grocery item from ")
	b.WriteString(storeOrDefault(req.StoreContext))
	b.WriteString(". Return ONLY a JSON object with: 'name' (string), 'price' (estimated number), 'icon' (font-awesome class).")
	if text := strings.TrimSpace(req.Text); text != "" {
		b.WriteString("\n\nText read from the label:\n")
		b.WriteString(text)
	}
	return b.String()
}

type promptItem struct {
	Name  string      `json:"name"`
	Price model.Money `json:"price"`
}

// ArbitrationPrompt states the audit contract: fuzzy name matching, what
// counts as an overcharge or a double scan, and that ambiguity is resolved
// in favour of not flagging. Receipts longer than maxReceiptChars are cut at
// a line boundary and the cut is logged.
func ArbitrationPrompt(req ArbitrationRequest, logger zerolog.Logger) (string, error) {
	items := make([]promptItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.IsProcessing {
			continue
		}
		items = append(items, promptItem{Name: item.Name, Price: item.Price})
	}
	cart, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}

	receipt, cut := clipReceipt(req.ReceiptText, maxReceiptChars)
	if cut {
		logger.Warn().
			Int("receipt_len", len(req.ReceiptText)).
			Int("kept_len", len(receipt)).
			Msg("receipt text truncated for arbitration")
	}

	var b strings.Builder
	b.WriteString("Audit this transaction at ")
	b.WriteString(storeOrDefault(req.StoreContext))
	b.WriteString(".\n\nUser's App Cart: ")
	b.Write(cart)
	b.WriteString("\n\nReceipt Scan Results:\n")
	b.WriteString(receipt)
	b.WriteString(`

Task:
1. Match items fuzzily. Names are equal regardless of case, spacing, singular or plural, and brand or size qualifiers (e.g. "Bananas" == "Organic Banana").
2. Identify items on the receipt that are NOT in the App Cart (Overcharge).
3. Identify double scans (appearing more times on receipt than in cart).
4. Ignore totals, subtotals, tax, payment and change lines.
5. When a match is ambiguous, do NOT report it. A missed discrepancy is better than a false accusation.

Return JSON ONLY: { "verified": boolean, "discrepancies": [ { "itemName": string, "issue": string } ] }
"verified" is true only when there are no discrepancies.`)
	return b.String(), nil
}

// clipReceipt shortens text to at most limit bytes, ending on the last full
// line. A single overlong line is cut on a rune boundary.
func clipReceipt(text string, limit int) (string, bool) {
	if len(text) <= limit {
		return text, false
	}
	if i := strings.LastIndexByte(text[:limit+1], '\n'); i > 0 {
		return text[:i], true
	}
	end := limit
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	return text[:end], true
}
