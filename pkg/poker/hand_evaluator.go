package poker

import (
	"fmt"
	"sort"

	chehsunliu "github.com/chehsunliu/poker"
)

// HandCategory ranks the strength class of a five-card hand.
type HandCategory int

const (
	HighCard HandCategory = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (c HandCategory) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandValue is a complete evaluation of the best five-card hand drawable
// from a player's cards: category, a totally-ordered internal rank value,
// and the specific five cards chosen (ties resolved inside RankValue via
// chehsunliu's internal kicker handling, including the ace-low wheel
// straight 5-4-3-2-A as the lowest straight).
type HandValue struct {
	Category        HandCategory
	RankValue       int32
	BestHand        []Card
	HandDescription string
}

// valueToInt converts a card Value to its integer representation (ace-high).
func valueToInt(value Value) int {
	switch value {
	case Ace:
		return 14
	case King:
		return 13
	case Queen:
		return 12
	case Jack:
		return 11
	case Ten:
		return 10
	case Nine:
		return 9
	case Eight:
		return 8
	case Seven:
		return 7
	case Six:
		return 6
	case Five:
		return 5
	case Four:
		return 4
	case Three:
		return 3
	case Two:
		return 2
	default:
		return 0
	}
}

// convertCardToChehsunliu converts our Card type to chehsunliu's Card type.
// Returns an error if the rank or suit is invalid instead of silently
// defaulting.
func convertCardToChehsunliu(card Card) (chehsunliu.Card, error) {
	var rankChar byte
	switch Value(card.GetValue()) {
	case Two:
		rankChar = '2'
	case Three:
		rankChar = '3'
	case Four:
		rankChar = '4'
	case Five:
		rankChar = '5'
	case Six:
		rankChar = '6'
	case Seven:
		rankChar = '7'
	case Eight:
		rankChar = '8'
	case Nine:
		rankChar = '9'
	case Ten:
		rankChar = 'T'
	case Jack:
		rankChar = 'J'
	case Queen:
		rankChar = 'Q'
	case King:
		rankChar = 'K'
	case Ace:
		rankChar = 'A'
	default:
		var empty chehsunliu.Card
		return empty, fmt.Errorf("invalid rank: %v", card.GetValue())
	}

	var suitChar byte
	switch Suit(card.GetSuit()) {
	case Spades:
		suitChar = 's'
	case Hearts:
		suitChar = 'h'
	case Diamonds:
		suitChar = 'd'
	case Clubs:
		suitChar = 'c'
	default:
		var empty chehsunliu.Card
		return empty, fmt.Errorf("invalid suit: %v", card.GetSuit())
	}

	return chehsunliu.NewCard(string([]byte{rankChar, suitChar})), nil
}

func convertRankClassToCategory(rankClass int32) HandCategory {
	switch rankClass {
	case 1:
		return StraightFlush
	case 2:
		return FourOfAKind
	case 3:
		return FullHouse
	case 4:
		return Flush
	case 5:
		return Straight
	case 6:
		return ThreeOfAKind
	case 7:
		return TwoPair
	case 8:
		return Pair
	default:
		return HighCard
	}
}

// EvaluateHand evaluates the best five-card hand from 2 hole cards and up
// to 5 community cards (5, 6, or 7 total cards all accepted).
func EvaluateHand(holeCards []Card, communityCards []Card) (HandValue, error) {
	allCards := append([]Card{}, holeCards...)
	allCards = append(allCards, communityCards...)

	chehCards := make([]chehsunliu.Card, 0, len(allCards))
	for _, c := range allCards {
		cc, err := convertCardToChehsunliu(c)
		if err != nil {
			return HandValue{}, fmt.Errorf("convert card: %w", err)
		}
		chehCards = append(chehCards, cc)
	}

	rank := chehsunliu.Evaluate(chehCards)
	rankClass := chehsunliu.RankClass(rank)

	bestCards, err := bestFiveCards(allCards, int32(rank))
	if err != nil {
		return HandValue{}, fmt.Errorf("best five cards: %w", err)
	}

	return HandValue{
		Category:        convertRankClassToCategory(rankClass),
		RankValue:       int32(rank),
		BestHand:        bestCards,
		HandDescription: chehsunliu.RankString(rank),
	}, nil
}

// bestFiveCards recovers which specific five cards out of a 5-7 card hand
// produced the evaluated rank, since chehsunliu only returns a rank value.
func bestFiveCards(cards []Card, targetRank int32) ([]Card, error) {
	if len(cards) <= 5 {
		return cards, nil
	}

	for _, combo := range combinations(cards, 5) {
		chehCombo := make([]chehsunliu.Card, 0, 5)
		for _, c := range combo {
			cc, err := convertCardToChehsunliu(c)
			if err != nil {
				return nil, fmt.Errorf("convert card in combination: %w", err)
			}
			chehCombo = append(chehCombo, cc)
		}
		if int32(chehsunliu.Evaluate(chehCombo)) == targetRank {
			return combo, nil
		}
	}

	// Should be unreachable for a valid targetRank produced by Evaluate
	// over the same card set; fall back to the five highest cards.
	sorted := make([]Card, len(cards))
	copy(sorted, cards)
	sortCardsByValue(sorted)
	return sorted[:5], nil
}

// combinations generates all k-card subsets of cards, in stable order.
func combinations(cards []Card, k int) [][]Card {
	var out [][]Card
	if k > len(cards) || k <= 0 {
		return out
	}

	var generate func(start int, current []Card)
	generate = func(start int, current []Card) {
		if len(current) == k {
			combo := make([]Card, k)
			copy(combo, current)
			out = append(out, combo)
			return
		}
		for i := start; i <= len(cards)-(k-len(current)); i++ {
			generate(i+1, append(current, cards[i]))
		}
	}
	generate(0, []Card{})
	return out
}

func sortCardsByValue(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return valueToInt(Value(cards[i].GetValue())) > valueToInt(Value(cards[j].GetValue()))
	})
}

// CompareHands returns -1 if a is worse than b, 0 if tied, 1 if a is
// better. chehsunliu ranks lower numeric values as stronger hands, so the
// comparison inverts that convention to return an ordinary comparator.
func CompareHands(a, b HandValue) int {
	if a.RankValue > b.RankValue {
		return -1
	}
	if a.RankValue < b.RankValue {
		return 1
	}
	return 0
}
