// Package content supplies the image/answer pairs that rounds are built
// from. Sources are interchangeable: the builtin set or a JSON file.
package content

type Pair struct {
	ImageURL string `json:"imageUrl"`
	Answer   string `json:"answer"`
}

type Source interface {
	Pairs() ([]Pair, error)
}

type Static struct {
	pairs []Pair
}

func NewStatic(pairs []Pair) *Static {
	return &Static{pairs: pairs}
}

func (s *Static) Pairs() ([]Pair, error) {
	out := make([]Pair, len(s.pairs))
	copy(out, s.pairs)
	return out, nil
}

// Builtin returns the default pack of image/answer pairs.
func Builtin() *Static {
	return NewStatic([]Pair{
		{ImageURL: "https://images.pexels.com/photos/1435895/pexels-photo-1435895.jpeg", Answer: "tralalelo tralala"},
		{ImageURL: "https://images.pexels.com/photos/1566837/pexels-photo-1566837.jpeg", Answer: "assassino cappuccino"},
		{ImageURL: "https://images.pexels.com/photos/1279330/pexels-photo-1279330.jpeg", Answer: "mama mia pizzeria"},
		{ImageURL: "https://images.pexels.com/photos/1547248/pexels-photo-1547248.jpeg", Answer: "gelato magnifico"},
		{ImageURL: "https://images.pexels.com/photos/696218/pexels-photo-696218.jpeg", Answer: "parmigiano tarantino"},
	})
}
