package sendingdomain

import (
	"context"
	"net"

	"golang.org/x/time/rate"
)

// ThrottledResolver rate limits TXT lookups so a burst of verify clicks
// cannot flood the upstream resolver.
type ThrottledResolver struct {
	resolver *net.Resolver
	limiter  *rate.Limiter
}

// NewThrottledResolver allows perSecond lookups with the given burst.
func NewThrottledResolver(perSecond float64, burst int) *ThrottledResolver {
	return &ThrottledResolver{
		resolver: net.DefaultResolver,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// LookupTXT implements Resolver. It blocks until a token is available or
// ctx is done.
func (r *ThrottledResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.resolver.LookupTXT(ctx, name)
}
