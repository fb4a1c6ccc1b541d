package benchmark

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/passage"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/config"
)

var vocabulary = strings.Fields(`president lincoln union army general grant
	river valley railroad telegraph election senate congress war peace treaty
	capital city harbor ship cotton farm factory school church court law
	speech debate campaign vote governor state nation border frontier`)

func randomText(rng *rand.Rand, words int) string {
	var sb strings.Builder
	for i := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(vocabulary[rng.IntN(len(vocabulary))])
	}
	return sb.String()
}

func buildEngine(b *testing.B, docs, words int) *indexer.Engine {
	b.Helper()
	rng := rand.New(rand.NewPCG(42, 7))
	engine := indexer.NewEngine(config.IndexerConfig{Fields: []string{"body"}, StoreOffsets: true}, store.NewMemory(), nil)
	ctx := context.Background()
	for i := range docs {
		if _, err := engine.IndexDocument(ctx, fmt.Sprintf("doc-%d", i), map[string]string{"body": randomText(rng, words)}); err != nil {
			b.Fatal(err)
		}
	}
	return engine
}

func BenchmarkTokenize(b *testing.B) {
	text := randomText(rand.New(rand.NewPCG(1, 2)), 500)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for b.Loop() {
		tokenizer.Tokenize(text)
	}
}

func BenchmarkRank(b *testing.B) {
	for _, size := range []struct{ docs, words int }{{200, 200}, {1000, 400}} {
		engine := buildEngine(b, size.docs, size.words)
		q, err := parser.Parse("president lincoln election", parser.Options{Slop: 10})
		if err != nil {
			b.Fatal(err)
		}
		for _, prefetch := range []int{0, 4} {
			b.Run(fmt.Sprintf("docs=%d/words=%d/prefetch=%d", size.docs, size.words, prefetch), func(b *testing.B) {
				opts := passage.DefaultOptions("body")
				opts.Prefetch = prefetch
				ranker := passage.NewRanker(engine)
				b.ReportAllocs()
				for b.Loop() {
					if _, err := ranker.Rank(context.Background(), q, opts); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkSelectorOffer(b *testing.B) {
	rng := rand.New(rand.NewPCG(3, 4))
	builder := passage.NewBuilder()
	b.ReportAllocs()
	for b.Loop() {
		sel := passage.NewSelector(10)
		for doc := range uint32(1000) {
			builder.Reset(doc, "body")
			builder.Add(passage.ZonePrimary, passage.WindowTerm{Term: "lincoln", Position: 1})
			builder.Score = rng.Float64()
			if _, err := sel.Offer(builder); err != nil {
				b.Fatal(err)
			}
		}
		sel.Drain()
	}
}
