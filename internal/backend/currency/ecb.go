package currency

import (
	"encoding/xml"
	"fmt"
	"io"
)

// DailyRates are the EUR reference rates published for one day.
type DailyRates struct {
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

type ecbEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Days    []ecbDay `xml:"Cube>Cube"`
}

type ecbDay struct {
	Time  string    `xml:"time,attr"`
	Rates []ecbRate `xml:"Cube"`
}

type ecbRate struct {
	Currency string  `xml:"currency,attr"`
	Rate     float64 `xml:"rate,attr"`
}

// ParseECB decodes an ECB eurofxref feed, newest day first as published.
func ParseECB(r io.Reader) ([]DailyRates, error) {
	var env ecbEnvelope
	if err := xml.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode ecb feed: %w", err)
	}
	if len(env.Days) == 0 {
		return nil, fmt.Errorf("decode ecb feed: no rates")
	}

	out := make([]DailyRates, 0, len(env.Days))
	for _, d := range env.Days {
		rates := make(map[string]float64, len(d.Rates))
		for _, r := range d.Rates {
			if r.Currency != "" && r.Rate > 0 {
				rates[r.Currency] = r.Rate
			}
		}
		out = append(out, DailyRates{Date: d.Time, Rates: rates})
	}
	return out, nil
}
