package endorse

// RecordInput carries one visitor endorsement to be applied to a card.
type RecordInput struct {
	CardID              string
	RecommenderName     string
	RecommenderWhatsapp string
	ShareMethod         string
}

// Result reports the card state reached by a recorded endorsement.
type Result struct {
	NewCount       int
	UnlockedMonths int
	Featured       bool
}
