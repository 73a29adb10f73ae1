package posts

import (
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

const (
	minSentences     = 1
	maxSentences     = 6
	minSentenceWords = 4
	maxSentenceWords = 16
)

// BodyGenerator produces the body an update writes into a post.
type BodyGenerator func() string

// LoremBodies generates one to six lorem ipsum sentences per body.
// A nil faker uses a randomly seeded one.
func LoremBodies(faker *gofakeit.Faker) BodyGenerator {
	if faker == nil {
		faker = gofakeit.New(0)
	}
	return func() string {
		sentences := make([]string, faker.Number(minSentences, maxSentences))
		for i := range sentences {
			sentences[i] = faker.LoremIpsumSentence(faker.Number(minSentenceWords, maxSentenceWords))
		}
		return strings.Join(sentences, " ")
	}
}
