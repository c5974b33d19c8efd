// Package ddv is the Go client for the ddv search API.
//
// Minimal usage:
//
//	client := ddv.New("http://localhost:8080", ddv.WithAPIKey("secret"))
//	resp, err := client.Search(ctx, "iphone 16 pro dưới 30 triệu", 10)
package ddv
