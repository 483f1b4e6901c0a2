//go:build js && wasm

// Command wasm runs the query engine inside a browser page. The page fetches
// the index artifact and hands it over with semsearchLoad; queries are
// embedded with the offline hash provider, so the index must be built with
// embedding.provider: hash and the same dimension.
package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"semsearch/internal/adapter/embedding"
	"semsearch/internal/adapter/memstore"
	"semsearch/internal/adapter/retriever"
	"semsearch/internal/domain"
	"semsearch/internal/usecase"
)

var (
	store   *memstore.MemoryStore
	engine  *retriever.SemanticRetriever
	session *usecase.SearchSession
)

func init() {
	store = memstore.NewMemoryStore()
}

func main() {
	c := make(chan struct{})

	js.Global().Set("semsearchLoad", js.FuncOf(loadIndex))
	js.Global().Set("semsearchQuery", js.FuncOf(queryIndex))
	js.Global().Set("semsearchClear", js.FuncOf(clearIndex))
	js.Global().Set("semsearchStats", js.FuncOf(getStats))

	<-c
}

// loadIndex(json, [dimension], [baseURL])
func loadIndex(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: semsearchLoad(indexJSON, [dimension], [baseURL])")
	}

	index, err := store.Put([]byte(args[0].String()))
	if err != nil {
		return makeError("load failed: " + err.Error())
	}

	dimension := index.Stats().Dimension
	if len(args) > 1 && args[1].Type() == js.TypeNumber {
		dimension = args[1].Int()
	}
	links := retriever.LinkOptions{}
	if len(args) > 2 {
		links.BaseURL = args[2].String()
	}

	engine = retriever.NewSemanticRetriever(embedding.NewHashEmbedder(dimension), index, retriever.RetrieverOptions{Links: links})
	session = usecase.NewSearchSession(engine, retriever.DefaultTopK)

	return makeResult(map[string]interface{}{
		"success":   true,
		"documents": len(index.Paths()),
		"shape":     index.Shape.String(),
	})
}

// queryIndex(text, [topK]). Only the latest query's results are returned;
// a superseded query yields {"stale": true}.
func queryIndex(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: semsearchQuery(query, [topK])")
	}
	if engine == nil {
		return makeError("no index loaded")
	}

	query := args[0].String()
	k := 0
	if len(args) > 1 {
		k = args[1].Int()
	}

	res, stale := session.SearchK(context.Background(), query, k)
	if stale {
		return makeResult(map[string]interface{}{"stale": true, "query": query})
	}

	results := res.Results
	if results == nil {
		results = []domain.RankedResult{}
	}
	return makeResult(map[string]interface{}{
		"query":   query,
		"status":  res.Status.String(),
		"results": results,
	})
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	store.Clear()
	engine = nil
	session = nil
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	if engine == nil {
		return makeResult(map[string]interface{}{"loaded": false})
	}
	index := engine.Index()
	stats := index.Stats()
	return makeResult(map[string]interface{}{
		"loaded":           true,
		"shape":            index.Shape.String(),
		"documents":        stats.Documents,
		"sections":         stats.Sections,
		"embeddedSections": stats.EmbeddedSections,
		"dimension":        stats.Dimension,
		"files":            index.Paths(),
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
