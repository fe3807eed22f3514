package command

import (
	"context"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

// RegisterHelp adds the built-in "/help" command listing every command.
func RegisterHelp(r *Registry) {
	r.Register("help", Command{
		Label: "List available commands",
		Handler: func(_ context.Context, _ domain.RequestContext) (*result.SearchResult, error) {
			res := result.New()
			for _, c := range r.List() {
				res.AppendItems(&result.Item{
					Title:    "/" + c.Key,
					Subtitle: c.Label,
					Type:     result.TypeCommand,
				})
			}
			return res, nil
		},
	})
}
