// Package currency converts amounts between currencies using the ECB
// reference rate feed and inserts a currency widget.
package currency

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

// Name is the registry name of the backend.
const Name = "currency"

// MethodRates is the public method returning the loaded rate table.
const MethodRates = "rates"

const base = "EUR"

var amountPattern = regexp.MustCompile(`(\d+([,\s]?\d)*(\.\d+)?)`)

// Backend serves currency conversions from a feed file owned by an external fetcher.
type Backend struct {
	backend.Base

	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	data  []DailyRates
	codes *regexp.Regexp
}

// New creates the backend reading the feed at path. An empty path leaves it inert.
func New(path string, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{path: path, logger: logger}
}

// Name returns the registry name.
func (*Backend) Name() string { return Name }

// Load reads the feed file once.
func (b *Backend) Load(_ context.Context) error {
	if b.path == "" {
		b.logger.Warn("Currency dataset not configured")
		return nil
	}
	return b.LoadFile(b.path)
}

// LoadFile replaces the rate table with the feed at path.
func (b *Backend) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open currency feed: %w", err)
	}
	defer f.Close()

	data, err := ParseECB(f)
	if err != nil {
		return err
	}
	b.SetRates(data)
	b.logger.Info("Currency rates loaded", zap.String("date", data[0].Date), zap.Int("currencies", len(data[0].Rates)))
	return nil
}

// SetRates installs a rate table, newest day first.
func (b *Backend) SetRates(data []DailyRates) {
	var codes *regexp.Regexp
	if len(data) > 0 {
		list := []string{base}
		for c := range data[0].Rates {
			list = append(list, regexp.QuoteMeta(c))
		}
		sort.Strings(list)
		codes = regexp.MustCompile(`(?i)\b(` + strings.Join(list, "|") + `)\b`)
	}

	b.mu.Lock()
	b.data = data
	b.codes = codes
	b.mu.Unlock()
}

// Search detects currency codes in the term and inserts a conversion widget at the top.
func (b *Backend) Search(
	_ context.Context, q query.Query, acc *result.SearchResult,
	_ backend.Options, _ domain.RequestContext, _ backend.Scope,
) error {
	if acc.HasItemType(result.TypeCurrency) {
		return nil
	}

	b.mu.RLock()
	data, codes := b.data, b.codes
	b.mu.RUnlock()
	if codes == nil {
		return nil
	}

	term := q.Term()
	found := codes.FindAllString(term, -1)
	if len(found) == 0 {
		return nil
	}
	from := strings.ToUpper(found[0])
	to := base
	if len(found) > 1 {
		to = strings.ToUpper(found[1])
	} else if from == base {
		to = "USD"
	}

	amount := parseAmount(term)
	converted, ok := Convert(data[0].Rates, from, to, amount)
	if !ok {
		return nil
	}

	acc.InsertItems(0, &result.Item{
		Title:    "Exchange rates",
		Subtitle: strconv.FormatFloat(amount, 'f', -1, 64) + " " + from,
		Type:     result.TypeCurrency,
		Source:   "European Central Bank",
		Options: map[string]any{
			"amount": amount,
			"from":   from,
			"to":     to,
			"result": converted,
			"rates":  data,
		},
	})
	return nil
}

// PublicMethod serves "rates": the loaded table, newest day first.
func (b *Backend) PublicMethod(ctx context.Context, method string, params url.Values) (any, error) {
	if method != MethodRates {
		return b.Base.PublicMethod(ctx, method, params)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data, nil
}

// Convert converts amount between currencies given EUR-based rates.
// Results below 1 keep 6 decimals, others 3.
func Convert(rates map[string]float64, from, to string, amount float64) (float64, bool) {
	if from == to {
		return amount, true
	}
	rate := func(c string) (float64, bool) {
		if c == base {
			return 1, true
		}
		r, ok := rates[c]
		return r, ok && r > 0
	}
	rf, ok := rate(from)
	if !ok {
		return 0, false
	}
	rt, ok := rate(to)
	if !ok {
		return 0, false
	}

	v := rt / rf * amount
	rounding := 1e3
	if v < 1 {
		rounding = 1e6
	}
	return math.Round(v*rounding) / rounding, true
}

func parseAmount(term string) float64 {
	m := amountPattern.FindString(term)
	if m == "" {
		return 1
	}
	m = strings.NewReplacer(",", "", " ", "").Replace(m)
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 1
	}
	return v
}
