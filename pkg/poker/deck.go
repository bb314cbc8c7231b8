package poker

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	mathrand "math/rand"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// IntegrityFailure is returned when a cryptographic deck invariant is
// violated: a recomputed commitment or shuffle hash that does not match
// the recorded one. The table actor treats a failed Verify as fatal for
// the affected hand and starts no hand.
type IntegrityFailure struct {
	Reason string
}

func (e *IntegrityFailure) Error() string { return "deck integrity failure: " + e.Reason }

// InvalidCommitment and InvalidShuffleProof name the two ways verification
// can fail, per spec's shuffle & commitment contract.
var (
	ErrInvalidCommitment  = &IntegrityFailure{Reason: "InvalidCommitment"}
	ErrInvalidShuffleProof = &IntegrityFailure{Reason: "InvalidShuffleProof"}
)

// CommittedDeck is the canonical 52-card deck plus a commitment hash that
// binds the dealer to this exact card set before any shuffle seed is
// known.
type CommittedDeck struct {
	Cards      []Card
	Commitment chainhash.Hash
	Nonce      [32]byte
}

// ShuffledDeck is a CommittedDeck after a seeded Fisher-Yates shuffle, with
// a proof binding the pre-shuffle cards, the post-shuffle cards, and the
// seed together so any party holding the seed can reproduce and verify it.
type ShuffledDeck struct {
	Committed CommittedDeck
	Shuffled  []Card
	Seed      int64
	Proof     chainhash.Hash
}

// GenerateDeck builds the canonical deck and commits to it with a random
// nonce. The nonce keeps the commitment hash from being guessable from the
// (fixed, public) canonical card ordering alone.
func GenerateDeck() (CommittedDeck, error) {
	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return CommittedDeck{}, fmt.Errorf("generate nonce: %w", err)
	}

	cards := canonicalCards()
	commitment := commitHash(cards, nonce)

	return CommittedDeck{Cards: cards, Commitment: commitment, Nonce: nonce}, nil
}

// NewShuffleSeed draws a seed from a cryptographic RNG. A seed is never
// reused across hands; each call returns a fresh value.
func NewShuffleSeed() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(0).SetUint64(1<<63-1))
	if err != nil {
		return 0, fmt.Errorf("generate shuffle seed: %w", err)
	}
	return n.Int64(), nil
}

// Shuffle performs a deterministic Fisher-Yates permutation of the
// committed deck driven by seed, and returns the result together with a
// proof binding canonical cards, shuffled cards, and the seed.
func Shuffle(committed CommittedDeck, seed int64) ShuffledDeck {
	shuffled := fisherYates(committed.Cards, seed)
	proof := proofHash(committed.Cards, shuffled, seed)

	return ShuffledDeck{
		Committed: committed,
		Shuffled:  shuffled,
		Seed:      seed,
		Proof:     proof,
	}
}

// Verify re-runs the Fisher-Yates permutation from the recorded seed and
// checks that it reproduces Shuffled, and that both the commitment and
// proof hashes recompute. A false result (or the returned error) means the
// hand must be voided per spec's IntegrityFailure handling.
func Verify(sd ShuffledDeck) (bool, error) {
	wantCommitment := commitHash(sd.Committed.Cards, sd.Committed.Nonce)
	if wantCommitment != sd.Committed.Commitment {
		return false, ErrInvalidCommitment
	}

	replay := fisherYates(sd.Committed.Cards, sd.Seed)
	if !cardsEqual(replay, sd.Shuffled) {
		return false, ErrInvalidShuffleProof
	}

	wantProof := proofHash(sd.Committed.Cards, sd.Shuffled, sd.Seed)
	if wantProof != sd.Proof {
		return false, ErrInvalidShuffleProof
	}

	return true, nil
}

func fisherYates(cards []Card, seed int64) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)

	rng := mathrand.New(mathrand.NewSource(seed))
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func cardsEqual(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func commitHash(cards []Card, nonce [32]byte) chainhash.Hash {
	return chainhash.HashH(append(cardBytes(cards), nonce[:]...))
}

func proofHash(canonical, shuffled []Card, seed int64) chainhash.Hash {
	buf := cardBytes(canonical)
	buf = append(buf, cardBytes(shuffled)...)
	seedBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(seedBytes, uint64(seed))
	buf = append(buf, seedBytes...)
	return chainhash.HashH(buf)
}

func cardBytes(cards []Card) []byte {
	buf := make([]byte, 0, len(cards)*2)
	for _, c := range cards {
		buf = append(buf, []byte(c.GetSuit())...)
		buf = append(buf, []byte(c.GetValue())...)
	}
	return buf
}

// Deck is the live, drawable deck for a single hand: the post-shuffle card
// order plus the cursor of cards already dealt or burned.
type Deck struct {
	cards []Card
	proof ShuffledDeck
}

// NewDeckFromShuffle builds a live deck from an already-shuffled,
// already-verified ShuffledDeck.
func NewDeckFromShuffle(sd ShuffledDeck) *Deck {
	cards := make([]Card, len(sd.Shuffled))
	copy(cards, sd.Shuffled)
	return &Deck{cards: cards, proof: sd}
}

// Draw removes and returns the top card of the deck.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, true
}

// Burn discards the top card without dealing it; burn cards never re-enter
// play. It is drawn before each community deal (flop, turn, river).
func (d *Deck) Burn() (Card, bool) {
	return d.Draw()
}

// Size returns the number of cards remaining in the deck.
func (d *Deck) Size() int { return len(d.cards) }

// DeckState is the serializable cursor state of a live deck, for
// checkpointing mid-hand.
type DeckState struct {
	RemainingCards []Card       `json:"remaining_cards"`
	Seed           int64        `json:"seed"`
	Proof          chainhash.Hash `json:"proof"`
}

// GetState returns the deck's current state for persistence.
func (d *Deck) GetState() *DeckState {
	return &DeckState{
		RemainingCards: append([]Card{}, d.cards...),
		Seed:           d.proof.Seed,
		Proof:          d.proof.Proof,
	}
}

// RestoreDeckFromState rebuilds a live deck cursor from a checkpointed
// state. It does not re-verify the shuffle proof (that happened once, at
// deal time); it only restores the remaining-cards cursor.
func RestoreDeckFromState(state *DeckState) (*Deck, error) {
	if state == nil {
		return nil, fmt.Errorf("deck state is nil")
	}
	cards := make([]Card, len(state.RemainingCards))
	copy(cards, state.RemainingCards)
	return &Deck{
		cards: cards,
		proof: ShuffledDeck{Seed: state.Seed, Proof: state.Proof},
	}, nil
}
