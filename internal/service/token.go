package service

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts svc's live token lookup to an oauth2.TokenSource.
// Every call asks the server again; wrap it in oauth2.ReuseTokenSource to
// keep the first answer.
func TokenSource(ctx context.Context, svc Service) oauth2.TokenSource {
	return liveTokens{ctx: ctx, svc: svc}
}

type liveTokens struct {
	ctx context.Context
	svc Service
}

func (l liveTokens) Token() (*oauth2.Token, error) {
	tok, err := l.svc.Token(l.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: tok}, nil
}
