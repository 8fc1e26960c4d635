// Package waura is the Go client for the waura search API.
//
// Quick start:
//
//	client := waura.New("http://localhost:8080", waura.WithAPIKey("secret"))
//	res, err := client.SearchCatalog(ctx, "черное худи", waura.CatalogParams{Limit: 10})
package waura
