package httpadapter

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const corsAllowMethods = "GET,POST,OPTIONS"
const corsAllowHeaders = "Content-Type,X-Farm-ID,X-Session-ID,X-Signature,X-Sender"

// corsPolicy allows every origin when origins is empty. Otherwise only the
// listed origins are echoed back and foreign preflights are refused.
type corsPolicy struct {
	origins map[string]bool
}

func newCORSPolicy(origins []string) corsPolicy {
	p := corsPolicy{}
	for _, o := range origins {
		if o == "" {
			continue
		}
		if p.origins == nil {
			p.origins = make(map[string]bool, len(origins))
		}
		p.origins[o] = true
	}
	return p
}

// apply reports whether the request origin is allowed.
func (p corsPolicy) apply(ctx *app.RequestContext) bool {
	if p.origins == nil {
		ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	} else {
		ctx.Response.Header.Set("Vary", "Origin")
		origin := string(ctx.Request.Header.Peek("Origin"))
		if !p.origins[origin] {
			return false
		}
		ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
	}
	ctx.Response.Header.Set("Access-Control-Allow-Methods", corsAllowMethods)
	ctx.Response.Header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	ctx.Response.Header.Set("Access-Control-Max-Age", "600")
	return true
}

func corsMiddleware(origins []string) app.HandlerFunc {
	policy := newCORSPolicy(origins)
	return func(c context.Context, ctx *app.RequestContext) {
		allowed := policy.apply(ctx)
		if string(ctx.Method()) == consts.MethodOptions {
			if !allowed {
				ctx.AbortWithStatus(consts.StatusForbidden)
				return
			}
			ctx.AbortWithStatus(consts.StatusNoContent)
			return
		}
		ctx.Next(c)
	}
}
