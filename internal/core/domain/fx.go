package domain

// FXQuote is the audited result of a currency conversion. FinalAmount is the
// converted amount with markup applied: amount * rate * (1 + markup).
type FXQuote struct {
	FromCurrency    string  `json:"from_currency"`
	ToCurrency      string  `json:"to_currency"`
	OriginalAmount  float64 `json:"original_amount"`
	ConvertedAmount float64 `json:"converted_amount"` // Before markup
	Rate            float64 `json:"rate"`
	Markup          float64 `json:"markup"` // Fraction, e.g. 0.02
	FinalAmount     float64 `json:"final_amount"`
}
