package elastic

// indexMapping is the product index mapping. Facet fields are keywords so
// term filters stay exact; the text fields share an edge-ngram autocomplete
// subfield used by Suggest.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "autocomplete_analyzer": {
          "type": "custom",
          "tokenizer": "autocomplete_tokenizer",
          "filter": ["lowercase"]
        },
        "autocomplete_search": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase"]
        }
      },
      "tokenizer": {
        "autocomplete_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20,
          "token_chars": ["letter", "digit"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "title":       { "type": "text", "fields": { "autocomplete": { "type": "text", "analyzer": "autocomplete_analyzer", "search_analyzer": "autocomplete_search" } } },
      "brand":       { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "category":    { "type": "keyword" },
      "gender":      { "type": "keyword" },
      "color":       { "type": "keyword" },
      "material":    { "type": "text" },
      "price":       { "type": "double" },
      "currency":    { "type": "keyword" },
      "sizes":       { "type": "keyword" },
      "image_url":   { "type": "keyword", "index": false },
      "product_url": { "type": "keyword", "index": false },
      "store":       { "type": "keyword" },
      "tags":        { "type": "keyword" },
      "style_tags":  { "type": "keyword" }
    }
  }
}`
